package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"filewright/internal/config"
	"filewright/internal/engine"
	"filewright/internal/logging"
	"filewright/internal/repl"
	"filewright/internal/session"
	"filewright/internal/workspace"
)

// Version is set via -ldflags during build
var Version = "dev"

func main() {
	var (
		workspaceFlag = flag.String("workspace", "", "Override workspace root directory")
		planFlag      = flag.String("plan", "", "Execute a plan file and exit ('-' reads stdin)")
		statsFlag     = flag.Bool("stats", false, "Print stored command statistics and exit")
		versionFlag   = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("filewright version %s\n", Version)
		return
	}

	if err := config.EnsureDefaultConfig(); err != nil {
		log.Fatalf("Failed to ensure default config: %v", err)
	}
	cfg, err := config.LoadUserConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if root := strings.TrimSpace(*workspaceFlag); root != "" {
		cfg.OverrideWorkspaceRoot(root)
	}

	root := cfg.WorkspaceRoot
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		log.Fatalf("Failed to resolve workspace root: %v", err)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		log.Fatalf("Failed to create workspace root: %v", err)
	}

	closeLog := logging.Setup(logging.RotationOptions{
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	defer closeLog()

	store, err := session.OpenStore(cfg.StorePath)
	if err != nil {
		log.Fatalf("Failed to open command store: %v", err)
	}
	defer store.Close()

	if *statsFlag {
		stats, err := store.Stats()
		if err != nil {
			log.Fatalf("Failed to read stats: %v", err)
		}
		fmt.Print(repl.FormatStats(stats))
		return
	}

	eng, err := engine.New(engine.Options{
		Root:     absRoot,
		DenyList: cfg.DenyList,
		Thresholds: workspace.Thresholds{
			MaxLines: cfg.ModifyMaxLines,
			MaxRatio: cfg.ModifyMaxRatio,
		},
		TreeMaxDepth: cfg.TreeMaxDepth,
		HaltOnDenial: cfg.HaltOnDenial,
		Logger:       logging.NewStructuredLogger(logging.Logger, "engine", cfg.JSONLogs),
	})
	if err != nil {
		log.Fatalf("Failed to init engine: %v", err)
	}

	events := session.NewEventLog(cfg.SessionDir)
	history := session.LoadHistory(filepath.Join(cfg.SessionDir, ".history"))
	runner := repl.New(eng, store, events, history)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logging.UserLog("received shutdown signal, stopping")
		cancel()
	}()

	if *planFlag != "" {
		if err := runPlanFile(ctx, runner, *planFlag); err != nil {
			log.Fatalf("Plan failed: %v", err)
		}
		return
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatalf("Session failed: %v", err)
	}
}

// runPlanFile executes one plan from a file or stdin and prints the
// report. A fatal halt maps to a non-nil error so the process exits
// non-zero.
func runPlanFile(ctx context.Context, runner *repl.Runner, path string) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}

	report := runner.ExecutePlan(ctx, string(data))
	runner.PrintReport(report)
	if report.Aborted {
		return fmt.Errorf("plan aborted: %s", report.AbortReason)
	}
	return nil
}
