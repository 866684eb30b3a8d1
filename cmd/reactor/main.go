package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌─┐┌─┐┌┬┐┌─┐┬─┐
  ├┬┘├┤ ├─┤│   │ │ │├┬┘
  ┴└─└─┘┴ ┴└─┘ ┴ └─┘┴└─
`

func main() {
	var (
		configDir string
		noColor   bool
	)

	rootCmd := &cobra.Command{
		Use:   "reactor",
		Short: "A reactive component runtime",
		Long: `Reactor is a reactive component runtime for Go.

Components declare state, computed values and watchers; renders track
what they read and are re-run in batches when it changes. Features:

  • Dependency tracking with batched, ordered flushes
  • Component lifecycle hooks and keep-alive caching
  • Provide / inject across the instance tree
  • Prometheus metrics and a websocket devtools feed`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor || os.Getenv("NO_COLOR") != "" {
				rerrors.DisableColors()
			} else {
				rerrors.EnableColors()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory to search for reactor.json")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored error output")

	load := func() (*config.Config, error) {
		cfg, err := config.LoadFromDir(configDir)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	rootCmd.AddCommand(
		demoCmd(load),
		benchCmd(load),
		devtoolsCmd(load),
		configCmd(load),
		errorsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// loader returns the effective configuration.
type loader func() (*config.Config, error)

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
