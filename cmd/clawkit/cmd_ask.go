package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/clawkit/internal/chat"
	"github.com/user/clawkit/internal/tools"
)

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("stream", false, "render the reply incrementally")
	askCmd.Flags().Bool("no-tools", false, "disable tool execution")
	askCmd.Flags().Bool("usage", false, "print token usage after the reply")
}

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send a single prompt and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		stream, _ := cmd.Flags().GetBool("stream")
		noTools, _ := cmd.Flags().GetBool("no-tools")
		showUsage, _ := cmd.Flags().GetBool("usage")

		provider, err := newProvider(cfg)
		if err != nil {
			return err
		}
		defer provider.Disconnect()

		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}

		registry := tools.NewRegistry()
		if !noTools {
			registry = newRegistry(cfg)
		}

		c := chat.New(provider, registry, engine, chat.Config{
			MaxRounds: cfg.MaxToolRounds,
			Stream:    stream,
			Output:    os.Stdout,
		})

		prompt := strings.Join(args, " ")
		reply, err := c.Turn(context.Background(), prompt)
		if err != nil {
			return err
		}
		if stream && len(registry.All()) == 0 {
			fmt.Println()
		} else {
			fmt.Println(reply)
		}

		if showUsage {
			u := provider.Usage()
			fmt.Fprintf(os.Stderr, "tokens=%d requests=%d cost=$%.4f\n",
				u.TokensUsed, u.RequestsCount, u.Cost)
		}
		return nil
	},
}
