package cmd

import (
	"crafthost/internal/app"
	"crafthost/internal/config"
	"crafthost/internal/logger"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Container *app.Container
	ConfigDir string
)

var RootCmd = &cobra.Command{
	Use:   "crafthost",
	Short: "Provision, run and back up a self-hosted Paper server",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if Container != nil {
			_ = Container.Close()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		RunDashboard()
	},
	SilenceUsage: true,
}

func setup() error {
	dir := ConfigDir
	if dir == "" {
		var err error
		if dir, err = config.DefaultDir(); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("error building logger: %w", err)
	}

	Container, err = app.NewContainer(cfg, log)
	return err
}

func Execute() {
	RootCmd.PersistentFlags().StringVar(&ConfigDir, "config-dir", "", "Directory holding config.json (defaults to the user config dir)")

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
