package main

import (
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/internal/daemon"
	_ "github.com/marrowvale/lockarbiter/pkg/hostsim/local"
	_ "github.com/marrowvale/lockarbiter/pkg/hostsim/nomad"
	_ "github.com/marrowvale/lockarbiter/pkg/lockstore/backend/bc"
	_ "github.com/marrowvale/lockarbiter/pkg/lockstore/backend/pg"
	_ "github.com/marrowvale/lockarbiter/pkg/lockstore/backend/s3"
)

func main() {
	appLogger := hclog.New(&hclog.LoggerOptions{
		Name:  "lockarbiterd",
		Level: hclog.LevelFromString("INFO"),
	})
	appLogger.Info("lockarbiterd is initializing")

	cfgPath := os.Getenv("LOCKARBITER_CONFIG")
	if cfgPath == "" {
		cfgPath = "lockarbiterd.yaml"
	}

	svc, err := daemon.Build(appLogger, cfgPath)
	if err != nil {
		appLogger.Error("Error building service", "error", err)
		os.Exit(1)
	}

	if err := svc.Run(); err != nil {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
}
