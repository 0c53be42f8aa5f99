// Command speedgrader grades Canvas discussion submissions with an external
// grader program and optionally posts the grades back.
package main

import (
	"fmt"
	"io"
	"os"

	"discussion-grader/internal/config"
	"discussion-grader/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	logFile    string

	cfg       *config.Config
	logCloser io.Closer

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "speedgrader",
	Short: "Local speed grader for Canvas discussions",
	Long: `speedgrader reads discussion submissions and the course roster from Canvas,
hands each submission to an external grading program as JSON on stdin, and
optionally posts the returned grade and a private comment back to Canvas.

Credentials come from config.yaml, a .env file, or CANVAS_URL / CANVAS_API_KEY.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(findAssignmentCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(showCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}

	logCloser, err = logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	return err
}
