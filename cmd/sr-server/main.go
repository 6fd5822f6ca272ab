package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"siderequest/internal/pixcodec"
	"siderequest/internal/server"
	"siderequest/internal/shared"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sr-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("sr-server", pflag.ContinueOnError)
	flags := shared.RegisterServerFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Config: defaults < YAML file < SR_* env < flags
	configPath := flags.ConfigPath
	if configPath == "" {
		configPath = os.Getenv("SR_CONFIG")
	}
	cfg, err := shared.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if flags.WriteConfig != "" {
		if err := shared.SaveServerConfig(flags.WriteConfig, cfg); err != nil {
			return fmt.Errorf("write config %s: %w", flags.WriteConfig, err)
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", flags.WriteConfig)
		return nil
	}

	log, err := shared.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.Close()

	enc, err := pixcodec.NewEncoder(cfg.PNGCompression)
	if err != nil {
		return err
	}

	api := &server.API{
		Money:       &server.Money{Store: store},
		Encoder:     enc,
		Log:         log,
		DefaultSize: cfg.DefaultSize,
		MaxSize:     cfg.MaxSize,
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	log.Info("sr-server listening", "addr", cfg.Addr, "store", cfg.Store.Backend, "default_size", cfg.DefaultSize, "max_size", cfg.MaxSize)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
