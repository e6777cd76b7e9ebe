package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/the-maldridge/pallet/pkg/config"
	"github.com/the-maldridge/pallet/pkg/host"
	"github.com/the-maldridge/pallet/pkg/storage"
	_ "github.com/the-maldridge/pallet/pkg/storage/bc"
	_ "github.com/the-maldridge/pallet/pkg/storage/file"
)

// version is stamped at build time.
var version = "devel"

var (
	scriptFile string
	configFile string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "pallet",
		Short:         "Script-driven package builder",
		Long:          "pallet runs a build script that stages files, invokes build\ntools, and emits an installable package archive.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScript,
	}
	root.PersistentFlags().StringVarP(&scriptFile, "config", "c", "pallet.lua", "build script to run")
	root.PersistentFlags().StringVar(&configFile, "settings", "", "application settings file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log verbosity override")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the build script",
			RunE:  runScript,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println("pallet", version)
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective settings",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	appLogger := hclog.New(&hclog.LoggerOptions{
		Name:  "pallet",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	storage.SetLogger(appLogger)
	storage.DoCallbacks()
	store, err := storage.Initialize(cfg.Store)
	if err != nil {
		appLogger.Error("Couldn't initialize storage", "error", err)
		return err
	}
	defer store.Close()

	h := host.New(appLogger, cfg).WithStore(store)
	defer h.Close()

	if err := h.RunFile(scriptFile); err != nil {
		appLogger.Error("Build failed", "script", scriptFile, "error", err)
		return err
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}
