package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/initiative-tracker/server/internal/commander"
	"github.com/initiative-tracker/server/internal/config"
	"github.com/initiative-tracker/server/internal/console"
	"github.com/initiative-tracker/server/internal/core/event"
	coresys "github.com/initiative-tracker/server/internal/core/system"
	"github.com/initiative-tracker/server/internal/data"
	"github.com/initiative-tracker/server/internal/dice"
	"github.com/initiative-tracker/server/internal/eventlog"
	"github.com/initiative-tracker/server/internal/handler"
	"github.com/initiative-tracker/server/internal/persist"
	"github.com/initiative-tracker/server/internal/playerview"
	"github.com/initiative-tracker/server/internal/prompt"
	"github.com/initiative-tracker/server/internal/scripting"
	"github.com/initiative-tracker/server/internal/system"
	"github.com/initiative-tracker/server/internal/telemetry"
	"github.com/initiative-tracker/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        Initiative Tracker  v0.1.0         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mTable:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ──────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/tracker.toml"
	if p := os.Getenv("TRACKER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Tracker.Name)

	// 3. Optional PostgreSQL sinks. Left nil, the persist system discards.
	printSection("Database")
	var entryWriter system.EntryWriter
	var recordWriter system.RecordWriter
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		sessionID, err := persist.NewSessionRepo(db).Start(ctx, cfg.Tracker.Name)
		if err != nil {
			return fmt.Errorf("session: %w", err)
		}
		entryWriter = persist.NewEventLogRepo(db, sessionID)
		recordWriter = persist.NewTelemetryRepo(db, sessionID)
		printOK("session " + sessionID.String())
	} else {
		printOK("disabled, the encounter log stays in memory")
	}
	fmt.Println()

	// 4. Rules and library
	printSection("Rules")
	engine, err := scripting.NewEngine(cfg.Rules.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	printOK("Lua rules loaded from " + cfg.Rules.ScriptsDir)

	library, err := data.LoadStatBlockLibrary(cfg.Library.StatBlocks)
	if err != nil {
		return fmt.Errorf("statblocks: %w", err)
	}
	printStat("stat blocks", library.Count())
	fmt.Println()

	// 5. Encounter state and collaborators
	bus := event.NewBus()
	enc := world.NewEncounter()
	prompts := prompt.NewQueue(log)
	eventLog := eventlog.New(bus, log)
	tracker := telemetry.NewTracker(bus, log)
	recorder := telemetry.NewRecorder(bus)
	view := playerview.NewPublisher(engine, cfg.PlayerView.SnapshotPath, log)
	settings := config.NewSettings(cfg)
	roller := dice.NewRoller(nil)

	cmd := commander.New(commander.Deps{
		Roster:    enc,
		Prompts:   prompts,
		Dice:      roller,
		EventLog:  eventLog,
		Telemetry: tracker,
		Settings:  settings,
		Rules:     engine,
		Editor:    handler.NewStatBlockEditor(prompts, log),
		Log:       log,
	})

	con, err := console.New(os.Stdin, os.Stdout, cfg.Console.Encoding, cfg.Loop.InQueueSize, log)
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}

	deps := &handler.Deps{
		Settings:  settings,
		Log:       log,
		Encounter: enc,
		Commander: cmd,
		Prompts:   prompts,
		Library:   library,
		EventLog:  eventLog,
		Dice:      roller,
		Telemetry: tracker,
		View:      view,
	}

	// 6. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(con.InQueue, con, deps, cfg.Loop.MaxLinesPerTick, log))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewDeferredSystem(deps, con, log))
	runner.Register(system.NewEmitSystem(enc, view, con, log))
	persistSys := system.NewPersistenceSystem(eventLog, recorder, entryWriter, recordWriter, log, cfg.Loop.FlushInterval)
	runner.Register(persistSys)

	// 7. Loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	printSection("Ready")
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Loop.TickRate))
	printReady("type .help for commands")
	fmt.Println()

	con.Start()

	stop := func(reason string) {
		log.Info("tracker stopping", zap.String("reason", reason))
		// deliver telemetry still on the bus, then write everything out
		runner.TickPhase(coresys.PhasePreUpdate, 0)
		persistSys.Flush()
		con.FlushOutput()
		log.Info("tracker stopped",
			zap.Int("log_entries", eventLog.Len()),
			zap.Int("views_published", view.Published()),
		)
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Loop.TickRate)
		case <-con.Done():
			// input ended: run what is still queued, then stop
			for len(con.InQueue) > 0 {
				runner.Tick(cfg.Loop.TickRate)
			}
			runner.Tick(cfg.Loop.TickRate)
			stop("console closed")
			return nil
		case sig := <-shutdownCh:
			con.Close()
			stop(sig.String())
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
