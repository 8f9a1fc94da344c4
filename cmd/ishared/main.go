package main

import (
	"context"
	"fmt"
	"image"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urbanbyte/ishare/internal/auth"
	"github.com/urbanbyte/ishare/internal/bootstrap"
	"github.com/urbanbyte/ishare/internal/capture"
	"github.com/urbanbyte/ishare/internal/clipboard"
	"github.com/urbanbyte/ishare/internal/config"
	internalhttp "github.com/urbanbyte/ishare/internal/http"
	"github.com/urbanbyte/ishare/internal/pipeline"
	"github.com/urbanbyte/ishare/internal/service"
	"github.com/urbanbyte/ishare/internal/thumbnail"
	"github.com/urbanbyte/ishare/internal/toast"
	"github.com/urbanbyte/ishare/internal/upload"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("ishared encerrado com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	bootstrap.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := bootstrap.Open(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer res.Close()
	store := res.Settings

	var writer clipboard.Writer = clipboard.SystemWriter{}
	if !clipboard.Available() {
		log.Warn().Msg("área de transferência indisponível; links ficam apenas no histórico")
		writer = &clipboard.MemoryWriter{}
	}
	sink := clipboard.NewSink(writer, log.With().Str("component", "clipboard").Logger())
	defer sink.Close()

	display := func() image.Rectangle {
		if bounds, ok := capture.PrimaryDisplay(); ok {
			return bounds
		}
		return image.Rect(0, 0, cfg.Display.Width, cfg.Display.Height)
	}

	presenter := toast.NewPresenter(store, toast.Options{
		Fade:     cfg.ToastFade,
		Display:  display,
		Revealer: toast.SystemRevealer{},
	}, log.With().Str("component", "toast").Logger())

	hosts, err := bootstrap.Hosts(cfg, store)
	if err != nil {
		return err
	}
	uploads := upload.NewClient(store, upload.ClientOptions{
		Hosts:     hosts,
		Clipboard: sink,
		History:   res.History,
		Notifier:  bootstrap.Notifier(cfg, log.Logger),
	}, log.Logger)

	pipe := pipeline.New(pipeline.Deps{
		Settings:   store,
		Thumbnails: thumbnail.NewGenerator(thumbnail.FFmpegExtractor{Binary: cfg.FFmpegPath}, log.With().Str("component", "thumbnail").Logger()),
		Presenter:  presenter,
		Uploads:    uploads,
		Capturer:   capture.NewRunner(store, log.With().Str("component", "capture").Logger()),
	}, log.Logger)

	pipeDone := make(chan struct{})
	go func() {
		defer close(pipeDone)
		_ = pipe.Run(ctx)
	}()

	var sessions auth.SessionStore = auth.NewMemorySessionStore()
	if res.Redis != nil {
		sessions = auth.NewRedisSessionStore(res.Redis)
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(jwtManager, sessions, cfg.JWTRefreshTTL,
		service.OwnerCredential(cfg.AdminPasswordHash),
		service.OperatorCredential(cfg.OperatorPasswordHash),
	)
	if cfg.AdminPasswordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD_HASH vazio; use `ishare hashpass` para gerar")
	}
	bootstrap.CheckPasswordHashes(cfg, log.With().Str("component", "auth").Logger())

	handler := internalhttp.NewRouter(internalhttp.Deps{
		Config:   cfg,
		Logger:   log.With().Str("component", "http").Logger(),
		Auth:     authService,
		Settings: store,
		Pipeline: pipe,
		Toasts:   presenter,
		History:  res.History,
		Checks:   res.Checks(),
	})

	addr := net.JoinHostPort(cfg.BindAddr, strconv.Itoa(cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("ishared ouvindo em %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown do servidor")
	}

	cancel()
	<-pipeDone
	pipe.Wait()
	uploads.Wait()
	presenter.Wait()
	return nil
}
