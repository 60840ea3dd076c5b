package main

import (
	"shelfkeeper/internal/bootstrap"
	"shelfkeeper/pkg/app"
	"shelfkeeper/pkg/config"
)

const ServiceName = "shelfkeeper"

func main() {
	cfg := config.Load(ServiceName)
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting shelfkeeper service")
	components, err := bootstrap.Build(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize components", "error", err)
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, components.Health, components.Handlers...)
	serverApp.OnShutdown(components.Close)
	serverApp.Run()
}
