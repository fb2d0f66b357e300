package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/engine"
	"github.com/parleyhq/parley/internal/evaluator"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/export"
	"github.com/parleyhq/parley/internal/panels"
	"github.com/parleyhq/parley/internal/persona"
	"github.com/parleyhq/parley/internal/provider"
	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/web/handlers"
)

// defaultPanelSpec seeds a two-panelist debate when no panel is given.
const defaultPanelSpec = "claude:pragmatist,claude:skeptic"

var (
	dbPath    string
	cfgPath   string
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Multi-agent AI debate tool",
	Long: `parley is a CLI tool that runs structured debates between AI panelists.

Create debates on any topic and watch a panel of AI models argue round by
round, score each other's arguments, and work toward consensus.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config
		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.parley/parley.db)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.parley/config.yaml)")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(panelsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

func getStorage(ctx context.Context) (storage.Storage, error) {
	driver := "sqlite"
	if appConfig != nil && appConfig.Storage.Driver != "" {
		driver = appConfig.Storage.Driver
	}

	var store storage.Storage
	switch driver {
	case "sqlite":
		path := dbPath
		if path == "" {
			path = appConfig.DefaultDBPath()
		}
		s, err := storage.NewSQLiteStorage(path)
		if err != nil {
			return nil, err
		}
		store = s
	case "postgres":
		if appConfig.Storage.DSN == "" {
			return nil, fmt.Errorf("storage driver is postgres but storage.dsn is not configured")
		}
		s, err := storage.NewPostgresStorage(ctx, appConfig.Storage.DSN)
		if err != nil {
			return nil, err
		}
		store = s
	case "memory":
		store = storage.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}

	if err := store.Initialize(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func getRegistry() (*provider.Registry, error) {
	return appConfig.CreateRegistry()
}

// getEngine wires storage, providers, evaluator and moderator into an
// engine. The evaluator and moderator are optional: if their configured
// provider is missing or unavailable the debate still runs, just without
// quality analysis or a model-written summary.
func getEngine(store storage.Storage, registry *provider.Registry, sink events.Sink) *engine.Engine {
	opts := engine.Options{
		Storage:  store,
		Registry: registry,
		Sink:     sink,
	}

	if name, model := splitProviderModel(appConfig.Defaults.Evaluator); name != "" {
		if p, err := registry.Get(name); err == nil && p.Available() {
			opts.Evaluator = evaluator.New(p, model)
		}
	}
	if name, model := splitProviderModel(appConfig.Defaults.Moderator); name != "" {
		if p, err := registry.Get(name); err == nil && p.Available() {
			opts.Moderator = engine.NewModerator(p, model)
		}
	}

	return engine.New(opts)
}

// splitProviderModel parses "provider[/model]" config values.
func splitProviderModel(spec string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(spec), "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

// ============================================================================
// NEW COMMAND
// ============================================================================

var newCmd = &cobra.Command{
	Use:   "new [topic]",
	Short: "Start a new debate",
	Long: `Create and run a new debate on the given topic.

Panelists are given as comma-separated specs: [name=]provider[/model][:persona]

Examples:
  parley new "Is AI beneficial for humanity?"
  parley new "Best programming language" -p "claude:optimist,gemini:skeptic"
  parley new "Monolith vs microservices" -p "Ada=claude/opus:analyst,Bob=codex,Eve=gemini" --stance adversarial
  parley new "API design" --roster architecture --mode supervised
  parley new "Tabs or spaces" --rounds 5 --no-scoring`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNewDebate,
}

var (
	panelFlag     string
	rosterFlag    string
	modeFlag      string
	stanceFlag    string
	roundsFlag    int
	noScoringFlag bool
	noRunFlag     bool
)

func init() {
	newCmd.Flags().StringVarP(&panelFlag, "panel", "p", "", "Panelists ([name=]provider[/model][:persona], comma-separated)")
	newCmd.Flags().StringVar(&rosterFlag, "roster", "", "Start from a saved panel roster")
	newCmd.Flags().StringVar(&modeFlag, "mode", "", "Debate mode (autonomous, supervised, participatory)")
	newCmd.Flags().StringVar(&stanceFlag, "stance", "", "Stance mode (free, adversarial, assigned)")
	newCmd.Flags().IntVarP(&roundsFlag, "rounds", "r", 0, "Maximum debate rounds")
	newCmd.Flags().BoolVar(&noScoringFlag, "no-scoring", false, "Disable argument scoring")
	newCmd.Flags().BoolVar(&noRunFlag, "no-run", false, "Create the debate without running it")
}

func runNewDebate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	store, err := getStorage(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	registry, err := getRegistry()
	if err != nil {
		return err
	}
	eng := getEngine(store, registry, progressSink())

	debateConfig, err := buildDebateConfig(topic)
	if err != nil {
		return err
	}

	state, err := eng.CreateDebate(cmd.Context(), debateConfig)
	if err != nil {
		return fmt.Errorf("failed to create debate: %w", err)
	}

	printDebateHeader(state)

	if noRunFlag {
		fmt.Printf("Created. Run it with: parley resume %s\n", shortID(state.ThreadID))
		return nil
	}

	return runDebate(cmd.Context(), eng, state.ThreadID)
}

// buildDebateConfig resolves the panel and merges config defaults with
// command-line flags. Roster settings beat config defaults; flags beat both.
func buildDebateConfig(topic string) (core.NewDebateConfig, error) {
	cfg := core.NewDebateConfig{
		Topic:      topic,
		DebateMode: core.DebateMode(appConfig.Defaults.Mode),
		StanceMode: core.StanceMode(appConfig.Defaults.StanceMode),
		MaxRounds:  appConfig.Defaults.MaxRounds,
	}

	switch {
	case panelFlag != "":
		panel, err := core.ParsePanelistSpecs(panelFlag)
		if err != nil {
			return cfg, fmt.Errorf("invalid --panel: %w", err)
		}
		cfg.Panel = panel
	case rosterFlag != "":
		roster, err := panels.NewManager(config.PanelsDir()).Get(rosterFlag)
		if err != nil {
			return cfg, err
		}
		panel, err := roster.Panel()
		if err != nil {
			return cfg, err
		}
		cfg.Panel = panel
		if roster.DebateMode != "" {
			cfg.DebateMode = roster.DebateMode
		}
		if roster.StanceMode != "" {
			cfg.StanceMode = roster.StanceMode
		}
		if roster.MaxRounds > 0 {
			cfg.MaxRounds = roster.MaxRounds
		}
	default:
		panel, err := core.ParsePanelistSpecs(defaultPanelSpec)
		if err != nil {
			return cfg, err
		}
		cfg.Panel = panel
	}

	if modeFlag != "" {
		cfg.DebateMode = core.DebateMode(modeFlag)
	}
	if stanceFlag != "" {
		cfg.StanceMode = core.StanceMode(stanceFlag)
	}
	if roundsFlag > 0 {
		cfg.MaxRounds = roundsFlag
	}
	if noScoringFlag || !appConfig.Defaults.Scoring {
		scoring := false
		cfg.ScoringEnabled = &scoring
	}

	return cfg, nil
}

func printDebateHeader(state *core.DebateState) {
	fmt.Printf("\n💬 Debate: %s\n", state.Topic)
	fmt.Printf("   Mode: %s | Stance: %s | Max rounds: %d\n", state.DebateMode, state.StanceMode, state.MaxRounds)
	fmt.Printf("   Panel (%d):\n", len(state.Panel))
	for _, p := range state.Panel {
		line := fmt.Sprintf("     • %s (%s", p.Name, p.Provider)
		if p.Model != "" {
			line += "/" + p.Model
		}
		line += ")"
		if role, ok := state.AssignedRoles[p.Name]; ok {
			line += fmt.Sprintf(" — %s", role.Role)
		} else if p.Persona != "" {
			line += fmt.Sprintf(" — %s", p.Persona)
		}
		fmt.Println(line)
	}
	fmt.Printf("   ID: %s\n\n", state.ThreadID)
	fmt.Println(strings.Repeat("─", 60))
}

// progressSink renders debate events as terminal output while a debate
// runs in the foreground.
func progressSink() events.SinkFunc {
	return func(ev events.Event) {
		switch data := ev.Data.(type) {
		case events.StatusData:
			if data.Message != "" {
				fmt.Printf("\n▸ %s\n", data.Message)
			}
		case events.PanelistResponseData:
			icon := "📢"
			if data.Placeholder {
				icon = "⚠️ "
			}
			fmt.Printf("\n%s Round %d — %s\n", icon, data.Round+1, data.Panelist)
			fmt.Println(strings.Repeat("─", 40))
			fmt.Println(data.Response)
		case events.StanceExtractedData:
			if data.Stance != nil {
				fmt.Printf("   • %s stance: %s (confidence %.2f)\n", data.Panelist, data.Stance.Label, data.Stance.Confidence)
			}
		case events.ConcessionDetectedData:
			c := data.Concession
			if c.ToPanelist != "" {
				fmt.Printf("   🤝 %s concedes a point to %s\n", c.Panelist, c.ToPanelist)
			} else {
				fmt.Printf("   🤝 %s concedes a point\n", c.Panelist)
			}
		case events.ScoreUpdateData:
			fmt.Printf("   🏆 %s: %+d this round (total %d)\n", data.Panelist, data.RoundTotal, data.Cumulative)
		case events.ForcedConcessionData:
			fmt.Printf("   ⚠️  %s trails %s by %d points and must concede\n", data.Panelist, data.Leader, data.Gap)
		case events.ErrorData:
			fmt.Printf("\n❌ %s\n", data.Message)
		}
	}
}

// runDebate drives a debate to its next stop (pause or finish), saving
// state on Ctrl+C so the debate can be resumed later.
func runDebate(ctx context.Context, eng *engine.Engine, threadID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\nInterrupted. Saving debate state...")
		cancel()
	}()

	state, err := eng.Run(ctx, threadID)
	if err != nil || ctx.Err() != nil {
		if ctx.Err() != nil {
			fmt.Println("\nDebate paused. Resume with: parley resume " + shortID(threadID))
			return nil
		}
		return fmt.Errorf("debate failed: %w", err)
	}

	switch state.Phase {
	case core.PhasePaused:
		printPauseNotice(state)
	case core.PhaseFinished:
		printOutcome(state)
	}
	return nil
}

func printPauseNotice(state *core.DebateState) {
	fmt.Printf("\n%s\n", strings.Repeat("─", 60))
	fmt.Printf("⏸  Paused after round %d, awaiting your input.\n", state.DebateRoundNum)
	fmt.Printf("   parley resume %s -m \"your message\"        (@name to address a panelist)\n", shortID(state.ThreadID))
	fmt.Printf("   parley resume %s --compelling <name>       (vote up an argument)\n", shortID(state.ThreadID))
}

func printOutcome(state *core.DebateState) {
	fmt.Printf("\n%s\n", strings.Repeat("═", 60))
	if state.ConsensusReached {
		fmt.Println("🏁 CONSENSUS REACHED")
	} else {
		fmt.Println("🏁 NO CONSENSUS")
	}
	fmt.Println(strings.Repeat("═", 60))

	if state.LastError != "" {
		fmt.Printf("\n❌ %s\n", state.LastError)
	}
	if state.Summary != "" {
		fmt.Printf("\n%s\n", state.Summary)
	}

	if scores := finalScores(state); len(scores) > 0 {
		fmt.Println("\nFinal scores:")
		for _, name := range state.PanelNames() {
			if total, ok := scores[name]; ok {
				fmt.Printf("  %s: %d\n", name, total)
			}
		}
	}
}

// finalScores returns each panelist's cumulative score from the most
// recent scored round.
func finalScores(state *core.DebateState) map[string]int {
	for i := len(state.History) - 1; i >= 0; i-- {
		if len(state.History[i].Scores) == 0 {
			continue
		}
		out := make(map[string]int, len(state.History[i].Scores))
		for name, s := range state.History[i].Scores {
			out[name] = s.Cumulative
		}
		return out
	}
	return nil
}

// ============================================================================
// LIST COMMAND
// ============================================================================

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all debates",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		registry, err := getRegistry()
		if err != nil {
			return err
		}
		eng := getEngine(store, registry, nil)

		debates, err := eng.ListDebates(cmd.Context(), 50, 0)
		if err != nil {
			return err
		}

		if len(debates) == 0 {
			fmt.Println("No debates found. Start one with: parley new \"Your topic\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTOPIC\tPHASE\tROUNDS\tPANEL\tCONSENSUS\tCREATED")
		fmt.Fprintln(w, "──\t─────\t─────\t──────\t─────\t─────────\t───────")

		for _, d := range debates {
			shortTopic := d.Topic
			if len(shortTopic) > 35 {
				shortTopic = shortTopic[:32] + "..."
			}
			consensus := ""
			if d.ConsensusReached {
				consensus = "🤝"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				shortID(d.ThreadID),
				shortTopic,
				d.Phase,
				d.Rounds,
				d.PanelSize,
				consensus,
				d.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		w.Flush()

		return nil
	},
}

// ============================================================================
// SHOW COMMAND
// ============================================================================

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show debate details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		registry, err := getRegistry()
		if err != nil {
			return err
		}
		eng := getEngine(store, registry, nil)

		threadID, err := findDebateByPrefix(cmd.Context(), eng, args[0])
		if err != nil {
			return err
		}

		state, err := eng.GetDebate(cmd.Context(), threadID)
		if err != nil {
			return err
		}

		fmt.Printf("\n💬 Debate: %s\n", state.Topic)
		fmt.Printf("   ID: %s\n", state.ThreadID)
		fmt.Printf("   Phase: %s\n", state.Phase)
		fmt.Printf("   Mode: %s | Stance: %s\n", state.DebateMode, state.StanceMode)
		fmt.Printf("   Rounds: %d of %d\n", state.DebateRoundNum, state.MaxRounds)
		for _, p := range state.Panel {
			line := fmt.Sprintf("   Panelist: %s (%s", p.Name, p.Provider)
			if p.Model != "" {
				line += "/" + p.Model
			}
			line += ")"
			if role, ok := state.AssignedRoles[p.Name]; ok {
				line += fmt.Sprintf(" — %s: %s", role.Role, role.PositionStatement)
			}
			fmt.Println(line)
		}
		fmt.Printf("   Created: %s\n", state.CreatedAt.Format(time.RFC3339))
		fmt.Println()

		order := state.PanelNames()
		for _, round := range state.History {
			fmt.Println(strings.Repeat("─", 60))
			fmt.Printf("ROUND %d\n", round.RoundNumber+1)
			if round.UserMessage != "" {
				fmt.Printf("\n🗣  Moderator: %s\n", round.UserMessage)
			}
			for _, name := range order {
				response, ok := round.PanelResponses[name]
				if !ok {
					continue
				}
				fmt.Printf("\n📢 %s\n", name)
				fmt.Println(strings.Repeat("─", 40))
				fmt.Println(response)
			}
			if len(round.Scores) > 0 {
				fmt.Println("\nScores:")
				for _, name := range order {
					if s, ok := round.Scores[name]; ok {
						fmt.Printf("  %s: %+d (total %d)\n", name, s.RoundTotal, s.Cumulative)
					}
				}
			}
			fmt.Println()
		}

		if state.Finished() {
			printOutcome(state)
		} else if state.Phase == core.PhasePaused {
			printPauseNotice(state)
		}

		return nil
	},
}

// ============================================================================
// RESUME COMMAND
// ============================================================================

var resumeCmd = &cobra.Command{
	Use:   "resume [id]",
	Short: "Resume a paused debate",
	Long: `Resume a paused debate, optionally steering it with a message or votes.

Use @name in the message to address specific panelists; they are asked to
respond to you directly in the next round.

Examples:
  parley resume abc123
  parley resume abc123 -m "Focus on the cost argument, @Ada"
  parley resume abc123 --compelling Ada --weak Bob`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		registry, err := getRegistry()
		if err != nil {
			return err
		}
		eng := getEngine(store, registry, progressSink())

		threadID, err := findDebateByPrefix(cmd.Context(), eng, args[0])
		if err != nil {
			return err
		}

		state, err := eng.GetDebate(cmd.Context(), threadID)
		if err != nil {
			return err
		}
		if state.Finished() {
			return fmt.Errorf("debate %s is already finished", shortID(threadID))
		}

		input := core.ResumeInput{
			Message:         messageFlag,
			CompellingVotes: compellingFlag,
			WeakVotes:       weakFlag,
		}
		if _, err := eng.Resume(cmd.Context(), threadID, input); err != nil {
			return err
		}

		return runDebate(cmd.Context(), eng, threadID)
	},
}

var (
	messageFlag    string
	compellingFlag []string
	weakFlag       []string
)

func init() {
	resumeCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Message to inject into the next round")
	resumeCmd.Flags().StringSliceVar(&compellingFlag, "compelling", nil, "Panelists whose last argument you found compelling")
	resumeCmd.Flags().StringSliceVar(&weakFlag, "weak", nil, "Panelists whose last argument you found weak")
}

// ============================================================================
// DELETE COMMAND
// ============================================================================

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		registry, err := getRegistry()
		if err != nil {
			return err
		}
		eng := getEngine(store, registry, nil)

		threadID, err := findDebateByPrefix(cmd.Context(), eng, args[0])
		if err != nil {
			return err
		}

		if err := eng.DeleteDebate(cmd.Context(), threadID); err != nil {
			return err
		}

		fmt.Printf("Deleted debate: %s\n", threadID)
		return nil
	},
}

// ============================================================================
// EXPORT COMMAND
// ============================================================================

var exportCmd = &cobra.Command{
	Use:   "export [id] [format]",
	Short: "Export debate to file",
	Long: `Export a debate to markdown, JSON, HTML, or PDF.

Examples:
  parley export abc123 markdown
  parley export abc123 pdf
  parley export abc123 json -o debate.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		registry, err := getRegistry()
		if err != nil {
			return err
		}
		eng := getEngine(store, registry, nil)

		threadID, err := findDebateByPrefix(cmd.Context(), eng, args[0])
		if err != nil {
			return err
		}

		state, err := eng.GetDebate(cmd.Context(), threadID)
		if err != nil {
			return err
		}

		format := export.Format(strings.ToLower(args[1]))
		exporter, err := export.GetExporter(format)
		if err != nil {
			return err
		}

		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = export.GenerateFilename(state, exporter.FileExtension())
		}

		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()

		if err := exporter.Export(state, file); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		fmt.Printf("Exported to: %s\n", outputPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file path")
}

// ============================================================================
// PROVIDERS COMMAND
// ============================================================================

var checkFlag bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List available AI providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := getRegistry()
		if err != nil {
			return err
		}

		fmt.Println("\nProviders:")
		fmt.Println(strings.Repeat("─", 50))

		if checkFlag {
			return checkProviders(cmd.Context(), registry)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDISPLAY\tMODELS\tSTATUS")

		for _, p := range registry.List() {
			status := "❌ Not installed"
			if p.Available() {
				status = "✅ Available"
			}
			models := strings.Join(p.Models(), ", ")
			if len(models) > 30 {
				models = models[:27] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name(), p.DisplayName(), models, status)
		}
		w.Flush()
		return nil
	},
}

// checkProviders sends a live probe to every provider and reports latency.
func checkProviders(ctx context.Context, registry *provider.Registry) error {
	fmt.Println("Probing providers, this may take a moment...")

	statuses := registry.CheckAll(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tLATENCY\tERROR")
	for _, s := range statuses {
		status := "❌ Unhealthy"
		if s.Healthy {
			status = "✅ Healthy"
		}
		latency := ""
		if s.Latency > 0 {
			latency = s.Latency.Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Provider, status, latency, s.Error)
	}
	w.Flush()
	return nil
}

func init() {
	providersCmd.Flags().BoolVar(&checkFlag, "check", false, "Probe each provider with a live request")
}

// ============================================================================
// PERSONAS COMMAND
// ============================================================================

var personasCmd = &cobra.Command{
	Use:     "persona",
	Short:   "List panelist personas",
	Aliases: []string{"personas"},
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all personas",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("\nBuilt-in Personas:")
		fmt.Println(strings.Repeat("─", 60))
		for _, p := range persona.DefaultPersonas() {
			fmt.Printf("\n%s (%s)\n", p.Name, p.ID)
			fmt.Printf("  %s\n", p.Description)
		}
		fmt.Println("\nAny other persona value is used directly as a debate perspective.")
	},
}

var personaShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show persona details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := persona.Get(args[0])
		if p == nil {
			return fmt.Errorf("persona not found: %s", args[0])
		}

		fmt.Printf("\nPersona: %s (%s)\n", p.Name, p.ID)
		fmt.Printf("Description: %s\n", p.Description)
		fmt.Println("\nSystem Prompt:")
		fmt.Println(strings.Repeat("─", 40))
		fmt.Println(p.SystemPrompt)
		return nil
	},
}

func init() {
	personasCmd.AddCommand(personaListCmd)
	personasCmd.AddCommand(personaShowCmd)
}

// ============================================================================
// PANELS COMMAND
// ============================================================================

var panelsCmd = &cobra.Command{
	Use:     "panel",
	Short:   "Manage saved panel rosters",
	Aliases: []string{"panels"},
}

var panelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved rosters",
	RunE: func(cmd *cobra.Command, args []string) error {
		rosters, err := panels.NewManager(config.PanelsDir()).List()
		if err != nil {
			return err
		}

		if len(rosters) == 0 {
			fmt.Println("No saved rosters. Create one with: parley panel save <name> -p \"claude,gemini\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPANELISTS\tMODE\tSTANCE\tROUNDS")
		for _, r := range rosters {
			mode := string(r.DebateMode)
			stance := string(r.StanceMode)
			rounds := ""
			if r.MaxRounds > 0 {
				rounds = fmt.Sprintf("%d", r.MaxRounds)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, strings.Join(r.Panelists, ", "), mode, stance, rounds)
		}
		w.Flush()
		return nil
	},
}

var panelShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show roster details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roster, err := panels.NewManager(config.PanelsDir()).Get(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("\nRoster: %s\n", roster.Name)
		panel, err := roster.Panel()
		if err != nil {
			return err
		}
		for _, p := range panel {
			line := fmt.Sprintf("  • %s (%s", p.Name, p.Provider)
			if p.Model != "" {
				line += "/" + p.Model
			}
			line += ")"
			if p.Persona != "" {
				line += " — " + p.Persona
			}
			fmt.Println(line)
		}
		if roster.DebateMode != "" {
			fmt.Printf("  Mode: %s\n", roster.DebateMode)
		}
		if roster.StanceMode != "" {
			fmt.Printf("  Stance: %s\n", roster.StanceMode)
		}
		if roster.MaxRounds > 0 {
			fmt.Printf("  Max rounds: %d\n", roster.MaxRounds)
		}
		return nil
	},
}

var panelSaveCmd = &cobra.Command{
	Use:   "save [name]",
	Short: "Save a roster",
	Long: `Save a named panel roster for reuse with: parley new --roster <name>

Examples:
  parley panel save architecture -p "Ada=claude/opus:analyst,Bob=gemini:skeptic"
  parley panel save review -p "claude,codex,gemini" --mode supervised --rounds 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if panelSaveSpec == "" {
			return fmt.Errorf("--panel is required")
		}

		roster := &panels.Roster{
			Name:       args[0],
			Panelists:  strings.Split(panelSaveSpec, ","),
			DebateMode: core.DebateMode(panelSaveMode),
			StanceMode: core.StanceMode(panelSaveStance),
			MaxRounds:  panelSaveRounds,
		}
		for i := range roster.Panelists {
			roster.Panelists[i] = strings.TrimSpace(roster.Panelists[i])
		}

		if err := panels.NewManager(config.PanelsDir()).Save(roster); err != nil {
			return err
		}

		fmt.Printf("Saved roster: %s\n", roster.Name)
		return nil
	},
}

var panelDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a roster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := panels.NewManager(config.PanelsDir()).Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted roster: %s\n", args[0])
		return nil
	},
}

var (
	panelSaveSpec   string
	panelSaveMode   string
	panelSaveStance string
	panelSaveRounds int
)

func init() {
	panelSaveCmd.Flags().StringVarP(&panelSaveSpec, "panel", "p", "", "Panelists ([name=]provider[/model][:persona], comma-separated)")
	panelSaveCmd.Flags().StringVar(&panelSaveMode, "mode", "", "Debate mode for this roster")
	panelSaveCmd.Flags().StringVar(&panelSaveStance, "stance", "", "Stance mode for this roster")
	panelSaveCmd.Flags().IntVarP(&panelSaveRounds, "rounds", "r", 0, "Maximum debate rounds for this roster")

	panelsCmd.AddCommand(panelListCmd)
	panelsCmd.AddCommand(panelShowCmd)
	panelsCmd.AddCommand(panelSaveCmd)
	panelsCmd.AddCommand(panelDeleteCmd)
}

// ============================================================================
// CONFIG COMMAND
// ============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config file: %s\n\n", config.DefaultConfigPath())

		if appConfig != nil {
			fmt.Println("Current settings:")
			fmt.Printf("  Default mode: %s\n", appConfig.Defaults.Mode)
			fmt.Printf("  Default stance mode: %s\n", appConfig.Defaults.StanceMode)
			fmt.Printf("  Default max rounds: %d\n", appConfig.Defaults.MaxRounds)
			fmt.Printf("  Scoring: %t\n", appConfig.Defaults.Scoring)
			fmt.Printf("  Moderator: %s\n", appConfig.Defaults.Moderator)
			fmt.Printf("  Evaluator: %s\n", appConfig.Defaults.Evaluator)
			fmt.Printf("  Storage driver: %s\n", appConfig.Storage.Driver)
			fmt.Println("\nProviders:")
			for name, p := range appConfig.Providers {
				status := "disabled"
				if p.Enabled {
					status = "enabled"
				}
				fmt.Printf("  %s: %s (timeout: %s)\n", name, status, p.Timeout)
			}
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		example := config.GenerateExample()
		if err := os.MkdirAll(config.DataDir(), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(example), 0644); err != nil {
			return err
		}

		fmt.Printf("Created config at: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// ============================================================================
// SERVE COMMAND
// ============================================================================

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") && appConfig != nil && appConfig.Server.Port != 0 {
			servePort = appConfig.Server.Port
		}

		store, err := getStorage(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		registry, err := getRegistry()
		if err != nil {
			return err
		}

		broadcaster := events.NewBroadcaster()
		eng := getEngine(store, registry, broadcaster)
		rosters := panels.NewManager(config.PanelsDir())

		fmt.Printf("\n🌐 Starting parley API server on http://localhost:%d\n\n", servePort)
		fmt.Println("Endpoints:")
		fmt.Printf("  GET  http://localhost:%d/api/debates              - List debates\n", servePort)
		fmt.Printf("  POST http://localhost:%d/api/debates              - Create a debate\n", servePort)
		fmt.Printf("  GET  http://localhost:%d/api/debates/:id/stream   - Live event stream (SSE)\n", servePort)
		fmt.Println("\nPress Ctrl+C to stop the server")

		h := handlers.New(eng, registry, broadcaster, rosters)
		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", servePort),
			Handler: h.Router(),
		}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			fmt.Println("\nShutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()

		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8184, "Server port")
}

// ============================================================================
// HELPERS
// ============================================================================

func findDebateByPrefix(ctx context.Context, eng *engine.Engine, prefix string) (string, error) {
	debates, _ := eng.ListDebates(ctx, 100, 0)
	for _, d := range debates {
		if strings.HasPrefix(d.ThreadID, prefix) {
			return d.ThreadID, nil
		}
	}
	return "", fmt.Errorf("debate not found: %s", prefix)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
