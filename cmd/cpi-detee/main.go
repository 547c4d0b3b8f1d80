package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/OmniCloudOrg/CPI-Detee/internal/adapters/docker"
	apihttp "github.com/OmniCloudOrg/CPI-Detee/internal/adapters/http"
	"github.com/OmniCloudOrg/CPI-Detee/internal/config"
	"github.com/OmniCloudOrg/CPI-Detee/internal/core/dispatch"
	"github.com/OmniCloudOrg/CPI-Detee/internal/core/parse"
	"github.com/OmniCloudOrg/CPI-Detee/internal/core/render"
	"github.com/OmniCloudOrg/CPI-Detee/internal/core/shell"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)
	cmd := &cobra.Command{
		Use:          "cpi-detee",
		Short:        "Action bridge for DeTEE workers driven through the detee-cli container",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the action surface over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath, debug)
		},
	})
	return cmd
}

func serve(ctx context.Context, configPath string, debug bool) error {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Adapter construction, then dependency injection into the dispatcher
	// and the HTTP handler.
	adapter, err := docker.NewAdapter(cfg.Container.Name, cfg.Container.Image,
		cfg.Container.ExecTimeout(), log)
	if err != nil {
		return err
	}

	renderer := render.New(shell.ForPlatform(cfg.EffectivePlatform()))
	parser := parse.New(parse.DefaultFieldSet())
	dispatcher := dispatch.New(adapter, adapter, renderer, parser, dispatch.Options{
		BrainURL:      cfg.Account.BrainURL,
		SSHPubkeyPath: cfg.Account.SSHPubkeyPath,
		VolumeRoot:    cfg.Container.VolumeRoot,
	}, log)

	// Dispatcher state is never trusted across restarts; re-derive it from
	// the container before serving.
	if ctx == nil {
		ctx = context.Background()
	}
	state := dispatcher.Probe(ctx)
	log.Info().Stringer("state", state).Str("container", cfg.Container.Name).Msg("bridge initialized")

	handler := apihttp.NewActionHandler(dispatcher)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	api := app.Group("/api")
	v1 := api.Group("/v1")
	v1.Get("/actions", handler.ListActions)
	v1.Post("/actions/:name", handler.Execute)

	log.Info().Str("listen", cfg.Listen).Msg("server starting")
	return app.Listen(cfg.Listen)
}
