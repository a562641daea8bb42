package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"tarpitd/internal/config"
	"tarpitd/internal/generator"
	"tarpitd/internal/httpapi"
	"tarpitd/internal/pot"
)

// shutdownGrace bounds how long draining takes on SIGINT/SIGTERM. Active
// tarpit streams are cut, which is exactly what we want on shutdown.
const shutdownGrace = 5 * time.Second

func run(cfg config.Config) error {
	log, closeLog, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	// All generator data is loaded and validated before anything listens;
	// a failure here aborts startup.
	kind := cfg.Generator.Kind()
	store, err := generator.NewStore(kind, cfg.Generator.Data)
	if err != nil {
		log.Error().Err(err).Msg("generator setup failed")
		return err
	}
	log.Info().Str("generator", string(kind)).Int("chunk_size", cfg.Generator.ChunkSize).Msg("generator ready")

	p := pot.New(pot.Config{
		Kind:          kind,
		ChunkSize:     cfg.Generator.ChunkSize,
		Prefix:        cfg.Generator.Prefix,
		MaxConcurrent: cfg.Generator.MaxConcurrent,
		TimeLimit:     cfg.Generator.TimeLimit(),
		SizeLimit:     cfg.Generator.SizeLimit,
	}, store, log.With().Str("component", "pot").Logger())

	httpapi.SetLogger(log.With().Str("component", "http").Logger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := httpapi.NewMux(ctx, p, httpapi.Options{
		Routes:          cfg.HTTP.Routes,
		CatchAll:        cfg.HTTP.CatchAll,
		ContentType:     cfg.HTTP.ContentType,
		RateLimit:       cfg.HTTP.RateLimit,
		RateLimitPeriod: time.Duration(cfg.HTTP.RateLimitPeriodSecs) * time.Second,
		CORSEnabled:     cfg.HTTP.CORSEnabled,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
	})
	if cfg.HTTP.CatchAll {
		log.Info().Msg("catch-all enabled, baiting every route")
	} else {
		log.Info().Strs("routes", cfg.HTTP.Routes).Msg("baiting configured routes")
	}

	// No WriteTimeout: tarpit responses are endless on purpose. The
	// header timeout still protects against slowloris on the way in.
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var health *http.Server
	if cfg.HTTP.HealthEnabled {
		health = &http.Server{
			Addr:              cfg.HTTP.HealthAddr,
			Handler:           httpapi.NewOpsMux(p.Ready),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTP.HealthAddr).Msg("health listener up")
			if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("health listener failed")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("version", version).Msg("tarpitd listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("bait listener did not drain, closing")
		_ = srv.Close()
	}
	if health != nil {
		_ = health.Shutdown(shutdownCtx)
	}
	return nil
}

// newLogger assembles the zerolog writer stack: optional console output
// and an optional append-only JSON file. The returned closer flushes the
// file writer on exit.
func newLogger(cfg config.LoggingConfig) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	closeLog := func() {}
	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closeLog, err
		}
		writers = append(writers, f)
		closeLog = func() { _ = f.Close() }
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}
	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return log, closeLog, nil
}
