package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ning0612/jutil/internal/config"
	"github.com/Ning0612/jutil/internal/logger"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	quiet     bool

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "jutil",
		Short: "Hardware report and Google Drive mirror uploads",
		Long: `jutil bundles two small utilities.

Examples:
  jutil hwinfo                          # Print CPU, RAM and GPU information
  jutil auth gdrive                     # Authorize Google Drive access
  jutil upload -n backup ~/photos       # Mirror ~/photos into "backup"
  jutil upload -n docs -p a.pdf -p dir  # Several paths into "docs"
  jutil history                         # Show previous uploads`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.yaml in ., ./configs or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log.format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors and hide progress")
}

// Execute runs the root command
func Execute() error {
	defer logger.Shutdown()
	return rootCmd.Execute()
}

// loadConfig reads the configuration and applies flag overrides. Logging
// is started by each command since upload routes console output through
// its progress renderer.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if quiet {
		c.Log.Level = logger.LevelError.String()
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	return nil
}

// initLogger starts the process-wide logger with console records going to
// console (stderr when nil)
func initLogger(console io.Writer) (logger.Logger, error) {
	lc, err := cfg.LoggerConfig(console)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(lc); err != nil {
		return nil, err
	}
	return logger.Get(), nil
}

// printInfo prints a message unless --quiet is set
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
