// config-convert copies a YAML configuration into a SQLite configuration
// database, the backend used by deployments that edit config at runtime.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/atmowatch/atmowatch/pkg/config"
)

func main() {
	yamlPath := flag.String("yaml", "config.yaml", "Path to the YAML configuration to convert")
	sqlitePath := flag.String("sqlite", "config.db", "Path to the SQLite configuration database to create or update")
	flag.Parse()

	yamlProvider := config.NewYAMLProvider(*yamlPath)
	cfg, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load %s: %v\n", *yamlPath, err)
		os.Exit(1)
	}

	sqliteProvider, err := config.NewSQLiteProvider(*sqlitePath)
	if err != nil {
		fmt.Printf("Failed to open %s: %v\n", *sqlitePath, err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	if err := sqliteProvider.SaveConfig(cfg); err != nil {
		fmt.Printf("Failed to store configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted %s -> %s (%d sources)\n", *yamlPath, *sqlitePath, len(cfg.Sources))
}
