package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/efreitasn/matchbook/internal/config"
	"github.com/efreitasn/matchbook/internal/engine"
	"github.com/efreitasn/matchbook/internal/ledger"
	"github.com/efreitasn/matchbook/internal/loadgen"
	"github.com/efreitasn/matchbook/internal/logging"
)

type options struct {
	configPath   string
	name         string
	script       string
	generate     int
	participants string
	replayFrom   string
	book         bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flag.StringVar(&opts.name, "name", "", "Engine instance name (overrides config)")
	flag.StringVar(&opts.script, "script", "", "Command script to run ('-' for stdin)")
	flag.IntVar(&opts.generate, "generate", 0, "Number of synthetic orders to place")
	flag.StringVar(&opts.participants, "participants", "aa,bb,cc", "Comma-separated participant codes for -generate")
	flag.StringVar(&opts.replayFrom, "replay-from", "", "Rebuild the book from this instance's order log first")
	flag.BoolVar(&opts.book, "book", false, "Print the book when done")
	flag.Parse()

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		slog.Error("matchbook failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(opts options, stdin io.Reader, stdout io.Writer) error {
	// Load configuration.
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.name != "" {
		cfg.Engine.Name = opts.name
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// Set up logger.
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	name := cfg.Engine.Name
	if name == "" {
		name = engine.NewInstanceName()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ledger and engine.
	led, err := ledger.Open(filepath.Join(cfg.Ledger.Dir, name), ledger.Options{Sync: cfg.Ledger.Sync})
	if err != nil {
		return err
	}
	defer func() {
		if err := led.Close(); err != nil {
			logger.Error("ledger close failed", slog.String("error", err.Error()))
		}
	}()

	eng := engine.New(led, engine.WithName(name), engine.WithLogger(logger))
	logger.Info("engine started", slog.String("engine", name), slog.String("ledger", led.Dir()))

	if opts.replayFrom != "" {
		if _, err := engine.Replay(ctx, filepath.Join(cfg.Ledger.Dir, opts.replayFrom), eng); err != nil {
			return fmt.Errorf("replay %s: %w", opts.replayFrom, err)
		}
	}

	sess := newSession(eng, stdout, logger)
	defer func() {
		sess.logIssued()
		arrivals, executions := eng.Counts()
		attrs := []any{
			slog.Int("arrivals", arrivals),
			slog.Int("executions", executions),
		}
		if herr := eng.Halted(); herr != nil {
			attrs = append(attrs, slog.String("halted", herr.Error()))
		}
		logger.Info("engine stopped", attrs...)
	}()

	if opts.script != "" {
		if err := runScriptFile(ctx, sess, opts.script, stdin); err != nil {
			return err
		}
	}

	if opts.generate > 0 {
		if err := generate(ctx, sess, cfg.LoadGen, opts); err != nil {
			return err
		}
	}

	if opts.book {
		if err := eng.Snapshot().WriteTable(stdout); err != nil {
			return err
		}
	}

	return nil
}

func runScriptFile(ctx context.Context, sess *session, path string, stdin io.Reader) error {
	if path == "-" {
		return sess.runScript(ctx, stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return sess.runScript(ctx, f)
}

func generate(ctx context.Context, sess *session, cfg config.LoadGenConfig, opts options) error {
	codes := strings.Split(opts.participants, ",")
	clients := make([]loadgen.Client, 0, len(codes))
	for i, code := range codes {
		codes[i] = strings.TrimSpace(code)
		c, err := sess.client(codes[i])
		if err != nil {
			return err
		}
		clients = append(clients, c)
	}

	params := loadgen.Params{
		MeanBid:    cfg.MeanBid,
		MeanOffer:  cfg.MeanOffer,
		PriceStdev: cfg.PriceStdev,
		MeanQty:    cfg.MeanQty,
		QtyStdev:   cfg.QtyStdev,
	}
	reqs, err := loadgen.New(params, cfg.Seed).Generate(codes, opts.generate)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	stats, err := loadgen.Place(ctx, clients, reqs)
	sess.logger.Info("synthetic load placed",
		slog.Int("placed", stats.Placed),
		slog.Int("rejected", stats.Rejected),
	)
	return err
}
