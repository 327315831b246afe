// Command statecraft runs a multi-nation escalation simulation: every day
// each nation's model proposes actions, the engine resolves them into state
// changes, and a world model narrates the consequences.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/talgya/statecraft/internal/archive"
	"github.com/talgya/statecraft/internal/config"
	"github.com/talgya/statecraft/internal/llm"
	"github.com/talgya/statecraft/internal/nation"
	"github.com/talgya/statecraft/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML run manifest")
	seed := flag.Int64("seed", 0, "Random seed for scripted policies")
	maxDays := flag.Int("max-days", 14, "Number of days to simulate")
	nationBackend := flag.String("nation-backend", "scripted", "Nation backend: anthropic, openai, or scripted")
	nationModel := flag.String("nation-model", "", "Model name for the nation backend")
	worldBackend := flag.String("world-backend", "scripted", "World model backend: anthropic, openai, or scripted")
	worldModel := flag.String("world-model", "", "Model name for the world model backend")
	roster := flag.String("roster", "configs/nations.csv", "Path to the nation roster CSV")
	catalog := flag.String("catalog", "configs/actions.csv", "Path to the action catalog CSV")
	clamp := flag.Bool("clamp", false, "Clamp dynamic variables to their min/max bounds")
	maxRetries := flag.Int("max-retries", 5, "Max query attempts per nation per day")
	temperature := flag.Float64("temperature", 1.0, "Sampling temperature for model backends")
	scenario := flag.String("scenario", "", "Optional day-0 scenario text included in prompts")
	archivePath := flag.String("archive", "data/statecraft.db", "Path to the run archive database")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	manifest, err := config.LoadManifest(*configPath)
	if err != nil {
		slog.Error("failed to load manifest", "error", err)
		os.Exit(1)
	}

	// Flags set on the command line override the manifest.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			manifest.Seed = *seed
		case "max-days":
			manifest.MaxDays = *maxDays
		case "nation-backend":
			manifest.NationBackend = *nationBackend
		case "nation-model":
			manifest.NationModel = *nationModel
		case "world-backend":
			manifest.WorldBackend = *worldBackend
		case "world-model":
			manifest.WorldModel = *worldModel
		case "roster":
			manifest.Roster = *roster
		case "catalog":
			manifest.Catalog = *catalog
		case "clamp":
			manifest.ClampDynamicVariables = *clamp
		case "max-retries":
			manifest.MaxModelRetries = *maxRetries
		case "temperature":
			manifest.Temperature = *temperature
		case "scenario":
			manifest.DayZeroScenario = *scenario
		case "archive":
			manifest.Archive = *archivePath
		}
	})
	if err := manifest.Validate(); err != nil {
		slog.Error("invalid run configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("loading configuration",
		"roster", manifest.Roster,
		"catalog", manifest.Catalog,
	)
	tables, err := config.LoadTables(manifest.Roster, manifest.Catalog)
	if err != nil {
		slog.Error("failed to load tables", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded",
		"nations", len(tables.Nations),
		"actions", tables.Table.Len(),
		"dynamic_fields", len(tables.Schema.Fields),
	)

	// ── Run archive ──────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(manifest.Archive), 0755)
	db, err := archive.Open(manifest.Archive)
	if err != nil {
		slog.Error("failed to open archive", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	runID, err := db.BeginRun(manifest)
	if err != nil {
		slog.Error("failed to register run", "error", err)
		os.Exit(1)
	}

	// ── Collaborators ────────────────────────────────────────────────
	nationFactory, err := buildFactory(manifest.NationBackend, manifest.NationModel, manifest.Temperature, manifest.Seed)
	if err != nil {
		slog.Error("invalid nation backend", "error", err)
		os.Exit(1)
	}
	worldFactory, err := buildFactory(manifest.WorldBackend, manifest.WorldModel, manifest.Temperature, manifest.Seed)
	if err != nil {
		slog.Error("invalid world model backend", "error", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(tables.Nations))
	for _, n := range tables.Nations {
		names = append(names, n.Name)
	}

	rosterEntries := make([]sim.Roster, 0, len(tables.Nations))
	for i, st := range tables.Nations {
		agent, err := nationFactory.NewResponder(st.Name, tables.Table, names, i)
		if err != nil {
			slog.Error("failed to build nation responder", "error", err)
			os.Exit(1)
		}
		rosterEntries = append(rosterEntries, sim.Roster{State: st, Agent: agent})
	}

	summarizer, err := worldFactory.NewSummarizer()
	if err != nil {
		slog.Error("failed to build world model", "error", err)
		os.Exit(1)
	}

	// ── World ────────────────────────────────────────────────────────
	world, err := sim.NewWorld(sim.Config{
		Schema:                tables.Schema,
		Table:                 tables.Table,
		MaxDays:               manifest.MaxDays,
		ClampValues:           manifest.ClampDynamicVariables,
		SelfAppliesOtherDelta: manifest.SelfAppliesOtherDelta,
		Scenario:              manifest.DayZeroScenario,
		Retry:                 sim.NewRetry(manifest.MaxModelRetries, sim.DefaultBackoff),
	}, rosterEntries, summarizer)
	if err != nil {
		slog.Error("failed to initialize world", "error", err)
		os.Exit(1)
	}

	world.OnDay = func(rep sim.DayReport) {
		if err := db.RecordDay(runID, rep); err != nil {
			slog.Error("failed to archive day", "day", rep.Day, "error", err)
		}
	}

	slog.Info("starting simulation",
		"run_id", runID,
		"nations", len(rosterEntries),
		"max_days", manifest.MaxDays,
		"clamp", manifest.ClampDynamicVariables,
		"max_retries", manifest.MaxModelRetries,
	)

	runErr := world.Run()
	db.SaveMeta(runID, "final_day", strconv.Itoa(world.Day()))
	db.SaveMeta(runID, "phase", world.Phase().String())

	if runErr != nil {
		var blackout *sim.BlackoutError
		if errors.As(runErr, &blackout) {
			slog.Error("simulation aborted: total communication blackout",
				"day", blackout.Day, "max_retries", blackout.Retries)
		} else {
			slog.Error("simulation failed", "error", runErr)
		}
		os.Exit(1)
	}

	printReport(world)
	slog.Info("simulation finished", "run_id", runID, "archive", manifest.Archive)
}

func buildFactory(kindName, model string, temperature float64, seed int64) (nation.Factory, error) {
	kind, err := nation.ParseBackendKind(kindName)
	if err != nil {
		return nation.Factory{}, err
	}
	f := nation.Factory{
		Kind:        kind,
		Model:       model,
		Temperature: temperature,
		Seed:        seed,
	}
	switch kind {
	case nation.BackendAnthropic:
		f.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case nation.BackendOpenAI:
		f.APIKey = os.Getenv("OPENAI_API_KEY")
		f.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	return f, nil
}

func printReport(world *sim.World) {
	fmt.Println()
	fmt.Println("=== CONSEQUENCE HISTORY ===")
	for _, c := range world.History() {
		fmt.Printf("## Day %d ##\n%s\n\n", c.Day, c.Text)
	}

	fmt.Println("=== FINAL NATION STATES ===")
	view := world.View()
	fmt.Print(llm.FormatNationStates(view))

	metrics := world.Metrics()
	fmt.Println()
	fmt.Println("=== ACTION CLASSIFICATIONS ===")
	for _, tag := range allTags(view.Catalog) {
		fmt.Printf("%s: total %d, daily max %d\n", tag, metrics.Sum(tag), metrics.Max(tag))
	}

	u := metrics.TotalUsage()
	fmt.Println()
	fmt.Printf("Token usage: %d prompt, %d completion, %d total (%.1fs of completions)\n",
		u.PromptTokens, u.CompletionTokens, u.TotalTokens, u.CompletionSec)
}

func allTags(catalog []sim.EffectSpec) []string {
	seen := make(map[string]bool)
	var out []string
	for _, spec := range catalog {
		for _, t := range spec.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
