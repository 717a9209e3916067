package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NamanBalaji/lj/internal/config"
	"github.com/NamanBalaji/lj/internal/credential"
	"github.com/NamanBalaji/lj/internal/dashboard"
	"github.com/NamanBalaji/lj/internal/job"
	"github.com/NamanBalaji/lj/internal/journal"
	"github.com/NamanBalaji/lj/internal/ledger"
	"github.com/NamanBalaji/lj/internal/logger"
	"github.com/NamanBalaji/lj/internal/pipeline"
	"github.com/NamanBalaji/lj/internal/process"
	"github.com/NamanBalaji/lj/internal/realdebrid"
	"github.com/NamanBalaji/lj/internal/tui"
	"github.com/NamanBalaji/lj/internal/tui/styles"
	"github.com/NamanBalaji/lj/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	debug := flag.Bool("debug", false, "Enable debug logging")
	// Hidden: the re-invocation entry point of a background worker.
	bgID := flag.String(worker.Flag[2:], "", "")
	flag.Usage = usage
	flag.Parse()

	paths := config.DefaultPaths()
	if err := paths.Ensure(); err != nil {
		return fail(err)
	}

	if err := logger.InitLogging(*debug || os.Getenv("LJ_DEBUG") == "1", paths.LogFile); err != nil && *bgID == "" {
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize logging: %v\n", err)
	}
	defer logger.Close()

	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		return fail(err)
	}

	if *bgID != "" {
		return runWorker(paths, cfg, *bgID)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return 0
	}

	// The dashboard blocks on stdin and the prompts handle ctrl+c themselves,
	// so only the network flows trap signals.
	switch args[0] {
	case "dl":
		err = runDashboard(context.Background(), paths)
	case "set-key":
		err = runSetKey(context.Background(), paths, cfg)
	case "sweep":
		err = withSignals(func(ctx context.Context) error { return runSweep(ctx, paths, cfg) })
	default:
		err = withSignals(func(ctx context.Context) error { return runMagnet(ctx, paths, cfg, args[0]) })
	}

	if err != nil {
		logger.Errorf("%s: %v", args[0], err)
		return fail(err)
	}
	return 0
}

func usage() {
	fmt.Println("Usage: lj <magnet>    - Download from magnet link")
	fmt.Println("       lj dl          - Show downloads in progress")
	fmt.Println("       lj set-key     - Set Real-Debrid API key")
	fmt.Println("       lj sweep       - Delete torrents left behind on Real-Debrid")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -debug              - Enable debug logging")
}

func withSignals(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return fn(ctx)
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "%s %v\n", styles.Danger.Render("Error:"), err)
	return 1
}

// runWorker never prints; the record and the log are its only outputs.
func runWorker(paths config.Paths, cfg *config.Config, id string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	j := openJournal(paths)
	defer j.Close()

	w := worker.New(
		job.NewStore(paths.JobsDir),
		realdebrid.NewHTTPClient(clientConfig(cfg), 0),
		j,
		worker.Options{CheckpointInterval: cfg.CheckpointInterval, UserAgent: cfg.UserAgent},
	)

	if err := w.Run(ctx, id); err != nil {
		logger.Errorf("Worker for %s: %v", id, err)
		return 1
	}
	return 0
}

func runDashboard(ctx context.Context, paths config.Paths) error {
	j := openJournal(paths)
	defer j.Close()

	d := dashboard.New(job.NewStore(paths.JobsDir), process.OS{}, j, os.Stdin, os.Stdout)
	return d.Run(ctx)
}

func runSetKey(ctx context.Context, paths config.Paths, cfg *config.Config) error {
	_, err := keySource(paths, cfg).Ask(ctx)
	return err
}

func runSweep(ctx context.Context, paths config.Paths, cfg *config.Config) error {
	client, err := newClient(ctx, paths, cfg)
	if err != nil {
		return err
	}

	l, err := ledger.Open(paths.LedgerFile)
	if err != nil {
		return err
	}
	defer l.Close()

	result, err := l.Sweep(ctx, client)
	if err != nil {
		return err
	}

	fmt.Printf("%s deleted %d torrent(s)\n", styles.Success.Render("Sweep:"), result.Deleted)
	for _, e := range result.Failed {
		fmt.Printf("  %s %s (added %s)\n", styles.Warning.Render("still present:"), e.RemoteID, e.AddedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runMagnet(ctx context.Context, paths config.Paths, cfg *config.Config, magnet string) error {
	if !pipeline.ValidMagnet(magnet) {
		return pipeline.ErrInvalidMagnet
	}

	client, err := newClient(ctx, paths, cfg)
	if err != nil {
		return err
	}

	options := []pipeline.Option{pipeline.WithOutput(os.Stdout)}
	if l, err := ledger.Open(paths.LedgerFile); err != nil {
		logger.Warnf("Remote ledger unavailable: %v", err)
	} else {
		defer l.Close()
		options = append(options, pipeline.WithTracker(l))
	}

	p := pipeline.New(client, tui.Terminal{}, pipeline.Options{
		FilesPollInterval:      cfg.FilesPollInterval,
		FilesTimeout:           cfg.FilesTimeout,
		CompletionPollInterval: cfg.CompletionPollInterval,
		CompletionTimeout:      cfg.CompletionTimeout,
		MinFileSize:            cfg.MinFileSize,
	}, options...)

	fmt.Println()
	links, err := p.Run(ctx, magnet)
	if err != nil {
		return err
	}

	return startDownloads(paths, links)
}

func startDownloads(paths config.Paths, links []pipeline.Link) error {
	targetDir, err := os.Getwd()
	if err != nil {
		targetDir = "."
	}

	store := job.NewStore(paths.JobsDir)
	j := openJournal(paths)
	defer j.Close()

	spawner, err := worker.NewSpawner(store, j)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("%s Starting %d download(s) in background...\n", styles.Success.Render("Success!"), len(links))

	now := time.Now()
	for i, link := range links {
		// Distinct creation times keep ids unique when filenames share a prefix.
		d := job.New(link.Filename, link.URL, targetDir, link.Size, now.Add(time.Duration(i)*time.Millisecond))
		if err := store.Save(d); err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", styles.Danger.Render("Error:"), link.Filename, err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := j.Add(ctx, d.ID, journal.LevelInfo, "created for "+link.URL); err != nil {
			logger.Warnf("Failed to journal event for %s: %v", d.ID, err)
		}
		cancel()

		if _, err := spawner.Spawn(d); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", styles.Danger.Render("Error:"), err)
			continue
		}
		fmt.Printf("  %s %s\n", styles.Success.Render("->"), link.Filename)
	}

	fmt.Println()
	fmt.Println(styles.Dim.Render("Downloads running in background. Use 'lj dl' to check progress."))
	return nil
}

func keySource(paths config.Paths, cfg *config.Config) *credential.Source {
	return &credential.Source{
		EnvVar:   cfg.APIKeyEnv,
		KeyFile:  paths.KeyFile,
		Prompter: tui.Terminal{},
		Out:      os.Stdout,
	}
}

func newClient(ctx context.Context, paths config.Paths, cfg *config.Config) (*realdebrid.Client, error) {
	key, err := keySource(paths, cfg).Key(ctx)
	if err != nil {
		return nil, err
	}
	return realdebrid.NewClient(key, clientConfig(cfg))
}

func clientConfig(cfg *config.Config) *realdebrid.ClientConfig {
	c := realdebrid.DefaultClientConfig()
	c.BaseURL = cfg.APIBaseURL
	c.UserAgent = cfg.UserAgent
	c.RequestTimeout = cfg.RequestTimeout
	return c
}

// openJournal degrades to a nil journal, which ignores every call.
func openJournal(paths config.Paths) *journal.Journal {
	j, err := journal.Open(paths.JournalFile)
	if err != nil {
		logger.Warnf("Journal unavailable: %v", err)
		return nil
	}
	return j
}
