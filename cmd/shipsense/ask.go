package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/af-corp/shipsense/internal/config"
	"github.com/af-corp/shipsense/internal/types"
	"github.com/spf13/cobra"
)

const defaultAskPrompt = "Give a Jenkins pipeline for building a Node app"

func newAskCmd() *cobra.Command {
	var (
		configDir string
		model     string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send one chat message and print the answer",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.TrimSpace(strings.Join(args, " "))
			if msg == "" {
				msg = defaultAskPrompt
			}

			level := "error"
			if verbose {
				level = "debug"
			}
			logger := newLogger(os.Stderr, config.TelemetryConfig{LogLevel: level, LogFormat: "text"})
			loader, err := loadConfig(configDir, logger)
			if err != nil {
				return err
			}
			c, err := buildComponents(loader, nil, logger)
			if err != nil {
				return err
			}

			reply, err := c.service.Chat(cmd.Context(), types.ChatRequest{Message: msg, Model: model})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, reply.Output)
			fmt.Fprintf(out, "\n[tokens] input=%d output=%d total=%d\n",
				reply.Tokens.Input, reply.Tokens.Output, reply.Tokens.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config", "configs", "path to configuration directory")
	cmd.Flags().StringVar(&model, "model", "", "model to use (default: gemini.default_model)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline events to stderr")
	return cmd
}
