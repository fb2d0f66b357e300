// Package protocol builds the prompts, role assignments and turn structure
// for debate rounds.
package protocol

import (
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/core"
)

// AssignAdversarialRoles deterministically splits a panel into PRO and CON
// camps. With an odd panel the last panelist in configuration order becomes
// the devil's advocate and the rest split evenly; with an even panel the two
// camps are equal. The same panel always produces the same assignment:
//
//	2 panelists -> 1 PRO, 1 CON
//	3 panelists -> 1 PRO, 1 CON, 1 DEVIL_ADVOCATE
//	4 panelists -> 2 PRO, 2 CON
//	5 panelists -> 2 PRO, 2 CON, 1 DEVIL_ADVOCATE
func AssignAdversarialRoles(panel []core.Panelist, topic string) map[string]*core.AssignedRole {
	n := len(panel)
	roles := make(map[string]*core.AssignedRole, n)
	if n == 0 {
		return roles
	}

	if n == 1 {
		roles[panel[0].Name] = buildRole(panel[0].Name, core.RoleNeutral, topic)
		return roles
	}

	split := n
	hasAdvocate := n%2 == 1
	if hasAdvocate {
		split = n - 1
	}
	proCount := split / 2

	for i, p := range panel {
		switch {
		case hasAdvocate && i == n-1:
			roles[p.Name] = buildRole(p.Name, core.RoleDevilsAdvocate, topic)
		case i < proCount:
			roles[p.Name] = buildRole(p.Name, core.RolePro, topic)
		default:
			roles[p.Name] = buildRole(p.Name, core.RoleCon, topic)
		}
	}

	return roles
}

// buildRole fills in the position statement and behavioral constraints for
// a role on a given topic.
func buildRole(name string, role core.Role, topic string) *core.AssignedRole {
	assigned := &core.AssignedRole{
		ParticipantName: name,
		Role:            role,
	}

	switch role {
	case core.RolePro:
		assigned.PositionStatement = fmt.Sprintf("Argue in favor of: %s", topic)
		assigned.Constraints = []string{
			"Defend the affirmative position in every round.",
			"You may concede individual points, but never concede the opposing conclusion.",
			"Engage the strongest counterarguments directly rather than the weakest.",
		}
	case core.RoleCon:
		assigned.PositionStatement = fmt.Sprintf("Argue against: %s", topic)
		assigned.Constraints = []string{
			"Defend the negative position in every round.",
			"You may concede individual points, but never concede the opposing conclusion.",
			"Engage the strongest counterarguments directly rather than the weakest.",
		}
	case core.RoleDevilsAdvocate:
		assigned.PositionStatement = fmt.Sprintf("Stress-test every position taken on: %s", topic)
		assigned.Constraints = []string{
			"Attack the strongest argument on the table each round, whichever side made it.",
			"Never settle into a fixed position of your own.",
			"Surface assumptions both camps are leaving unexamined.",
		}
	case core.RoleNeutral:
		assigned.PositionStatement = fmt.Sprintf("Weigh the evidence on: %s", topic)
		assigned.Constraints = []string{
			"Follow the evidence wherever it leads.",
			"Flag weak reasoning on any side, including your own.",
		}
	}

	return assigned
}

// ValidateAssignedRoles checks caller-provided role assignments against the
// panel: every assignment must reference a real panelist and carry a known
// role, and every panelist must be covered.
func ValidateAssignedRoles(panel []core.Panelist, roles map[string]*core.AssignedRole) error {
	if len(roles) == 0 {
		return fmt.Errorf("assigned stance mode requires explicit roles")
	}

	names := make(map[string]bool, len(panel))
	for _, p := range panel {
		names[p.Name] = true
	}

	for name, role := range roles {
		if !names[name] {
			return fmt.Errorf("role assigned to unknown panelist: %s", name)
		}
		if role == nil {
			return fmt.Errorf("nil role assignment for panelist: %s", name)
		}
		if !core.ValidRole(role.Role) {
			return fmt.Errorf("unknown role %q for panelist %s", role.Role, name)
		}
		if role.ParticipantName == "" {
			role.ParticipantName = name
		}
	}

	for _, p := range panel {
		if _, ok := roles[p.Name]; !ok {
			return fmt.Errorf("panelist %s has no assigned role", p.Name)
		}
	}

	return nil
}

// RoleBlock renders a role assignment as prompt text. Returns "" for a nil
// role so free-stance prompts stay role-free.
func RoleBlock(role *core.AssignedRole) string {
	if role == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your debate role: %s\n", role.Role)
	fmt.Fprintf(&b, "Your position: %s\n", role.PositionStatement)
	if len(role.Constraints) > 0 {
		b.WriteString("Your constraints:\n")
		for _, c := range role.Constraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}
