package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/lotinfo/internal/config"
	"github.com/woozymasta/lotinfo/internal/gis"
	"github.com/woozymasta/lotinfo/internal/logger"
	"github.com/woozymasta/lotinfo/internal/numfmt"
	"github.com/woozymasta/lotinfo/internal/parcel"
	"github.com/woozymasta/lotinfo/internal/render"
	"github.com/woozymasta/lotinfo/internal/server"
	"github.com/woozymasta/lotinfo/internal/zoning"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"   env:"CONFIG_FILE"    description:"Path to configuration file"     default:"config.yaml"`
	Addr       string `short:"a" long:"addr"     env:"LISTEN_ADDRESS" description:"Address to listen on"           default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"     env:"LISTEN_PORT"    description:"Port to listen on"              default:"8080"`
	GISURL     string `short:"g" long:"gis-url"  env:"GIS_BASE_URL"   description:"Override the map service base URL"`
}

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", opts.ConfigFile).Msg("Config file not found, using defaults")
		cfg = config.Default()
		err = nil
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.GISURL != "" {
		cfg.GIS.BaseURL = opts.GISURL
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("Invalid map service URL")
		}
	}

	style, err := numfmt.ForLocale(cfg.Display.Locale)
	if err != nil {
		log.Fatal().Err(err).Str("locale", cfg.Display.Locale).Msg("Unsupported display locale")
	}

	renderer, err := render.New(style, cfg.Display.Minify)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare page template")
	}

	client := gis.NewClient(cfg.GIS)
	parcels := parcel.NewService(client, zoning.Default(), cfg)
	srvCtx := server.NewServerContext(cfg, parcels, renderer)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GIS.Timeout+5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Str("gis", cfg.GIS.BaseURL).
		Int("zones_loaded", zoning.Default().Len()).
		Str("locale", cfg.Display.Locale).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Web server stopped")
}
