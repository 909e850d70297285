// Package main is the entry point for stacgate.
//
//	@title						STACgate - Geospatial Catalog API
//	@version					0.1
//	@description				Composable STAC catalog API with capability extensions, policy overlays, and pluggable storage.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				API key for guarded routes
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/stacgate/stacgate/bootstrap"
	"github.com/stacgate/stacgate/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "stacgate.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	hotReload := flag.Bool("hot-reload", true, "Enable hot reload of configuration")
	flag.Parse()

	if *showVersion {
		fmt.Printf("stacgate %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if *validate {
		cfg, err := config.LoadWithFallback(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration valid\n")
		fmt.Printf("  Catalog: %s\n", cfg.Catalog.Title)
		fmt.Printf("  Storage: %s\n", cfg.Storage.Driver)
		fmt.Printf("  Extensions: %d\n", len(cfg.Extensions))
		os.Exit(0)
	}

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: *configPath,
		HotReload:  *hotReload,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		os.Exit(1)
	}

	// Run blocks until shutdown
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
