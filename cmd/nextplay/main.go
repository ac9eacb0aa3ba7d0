package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/nextplay/config"
	"github.com/rushteam/nextplay/pkg/log"
)

var (
	configPath string
	settings   *config.Settings
)

var rootCommand = &cobra.Command{
	Use:           "nextplay",
	Short:         "Hybrid game recommender",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadSettings(configPath)
		if err != nil {
			return err
		}
		settings = s
		log.SetLogger(s.LogOptions())
		return nil
	},
}

func init() {
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")
	rootCommand.AddCommand(
		recommendCommand,
		contentCommand,
		collabCommand,
		similarCommand,
		popularCommand,
		rateCommand,
		signupCommand,
		gamesCommand,
		refreshCommand,
		datasetCommand,
		importCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
