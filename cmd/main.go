// Command claude-compressor runs a transparent compression proxy in front
// of an LLM chat-completion API.
//
// FILES:
//   - main.go:    CLI definition and entry point
//   - serve.go:   server bootstrap, banner, graceful shutdown
//   - logging.go: zerolog setup (console or JSON, optional file)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	flagConfig string
	flagPort   int
	flagDebug  bool
)

func main() {
	root := &cobra.Command{
		Use:          "claude-compressor",
		Short:        "Token-compressing reverse proxy for LLM chat APIs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.Flags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	root.Flags().IntVarP(&flagPort, "port", "p", 0, "listen port (overrides config)")
	root.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("claude-compressor " + version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
