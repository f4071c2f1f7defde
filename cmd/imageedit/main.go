// Command imageedit serves the browser front end for prompt editing and
// image generation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	imagegen "github.com/zcordelier/imagegen"
	"github.com/zcordelier/imagegen/client"
	"github.com/zcordelier/imagegen/model"
	"github.com/zcordelier/imagegen/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := imagegen.LoadConfig()
	if err != nil {
		return err
	}
	log := imagegen.NewLogger(cfg)

	for _, dir := range []string{cfg.AssetsDir, cfg.PromptsDir, cfg.StylesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	registry := model.Default()
	resolver := imagegen.NewResolver(registry, cfg)
	falClient := client.New(cfg.FalKey, client.WithLogger(log))
	generator := &imagegen.Generator{
		Transport: falClient,
		Resolver:  resolver,
		OutputDir: cfg.AssetsDir,
		Log:       log,
	}

	server, err := web.NewServer(cfg, registry, resolver, generator, falClient, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("model", cfg.StartupModel).Msg("starting web editor")
	return server.Run(ctx)
}
