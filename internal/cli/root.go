// Package cli implements flowtoy's command-line surface: run, serve and
// validate, plus the persistent logging/config flags every command
// shares. Grounded on the teacher's internal/cli/root.go (cobra + viper +
// zerolog + godotenv wiring), minus its charmbracelet/fang-based styled
// help and bubbletea TUI commands — neither is verifiable without
// running the toolchain, and spec.md treats the CLI as a boundary-only
// collaborator, so flowtoy's CLI stays plain cobra.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFlagLogLevel string
	cfgFlagQuiet    bool
	cfgFlagVerbose  bool
)

// Execute runs the root command; it's the sole entry point cmd/flowtoy
// calls.
func Execute() error {
	return rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "flowtoy",
	Short: "Run declarative data-collection flows",
	Long: "flowtoy executes a declarative flow of named data sources and steps,\n" +
		"resolving dependencies between steps automatically and running\n" +
		"independent steps concurrently.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		initLogging()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFlagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&cfgFlagQuiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&cfgFlagVerbose, "verbose", "v", false, "enable debug logging")

	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("FLOWTOY")
	viper.AutomaticEnv()

	rootCmd.AddCommand(runCmd, serveCmd, validateCmd, versionCmd)
}

func initLogging() {
	level := strings.ToLower(cfgFlagLogLevel)
	if cfgFlagVerbose {
		level = "debug"
	}
	if cfgFlagQuiet {
		level = "error"
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

func fail(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
