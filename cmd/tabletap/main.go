package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"tabletap/internal/app/api"
	"tabletap/internal/app/dashboard"
	"tabletap/internal/app/tracking"
	"tabletap/internal/config"
	"tabletap/internal/logger"
)

func main() {
	mode := flag.String("mode", "", "api-server | dashboard-feed | tracking-feed")
	port := flag.Int("port", 0, "http port")
	configPath := flag.String("config", "", "path to config.yaml")
	restaurant := flag.String("restaurant", "", "dashboard-feed: restaurant id")
	phone := flag.String("phone", "", "tracking-feed: customer phone")
	flag.Parse()

	_ = godotenv.Load()

	lg := logger.New("bootstrap")

	path := *configPath
	if path == "" {
		var err error
		path, err = config.FindConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "no config.yaml found; pass --config")
			os.Exit(2)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "api-server":
		if *port == 0 {
			*port = 3000
		}
		lg.Info("service_starting", map[string]any{"service": "api-server", "port": *port})
		if err := api.Run(ctx, cfg, *port); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "dashboard-feed":
		if *restaurant == "" {
			fmt.Fprintln(os.Stderr, "--restaurant is required for dashboard-feed")
			os.Exit(2)
		}
		restaurantID, err := uuid.Parse(*restaurant)
		if err != nil {
			fmt.Fprintln(os.Stderr, "--restaurant must be a valid uuid")
			os.Exit(2)
		}
		if *port == 0 {
			*port = 3001
		}
		lg.Info("service_starting", map[string]any{"service": "dashboard-feed", "port": *port})
		if err := dashboard.Run(ctx, cfg, *port, restaurantID); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "tracking-feed":
		if *phone == "" {
			fmt.Fprintln(os.Stderr, "--phone is required for tracking-feed")
			os.Exit(2)
		}
		if *port == 0 {
			*port = 3002
		}
		lg.Info("service_starting", map[string]any{"service": "tracking-feed", "port": *port})
		if err := tracking.Run(ctx, cfg, *port, *phone); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: api-server | dashboard-feed | tracking-feed")
		os.Exit(2)
	}
}
