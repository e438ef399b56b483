package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/simp-lee/order360/internal/app"
	"github.com/simp-lee/order360/internal/config"
)

func main() {
	defaultConfig := "configs/config.yaml"
	if p := os.Getenv("APP_CONFIG"); p != "" {
		defaultConfig = p
	}
	configPath := flag.String("config", defaultConfig, "path to configuration file (env APP_CONFIG)")
	checkOnly := flag.Bool("check", false, "validate the configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", *configPath, err)
	}
	if *checkOnly {
		fmt.Printf("%s: ok (backend %s, %s database)\n", *configPath, cfg.Backend.BaseURL, cfg.Database.Driver)
		return
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
