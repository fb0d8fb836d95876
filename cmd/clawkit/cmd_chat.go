package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/clawkit/internal/chat"
	"github.com/user/clawkit/internal/tools"
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("stream", true, "render replies incrementally")
	chatCmd.Flags().Bool("no-tools", false, "disable tool execution")
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		stream, _ := cmd.Flags().GetBool("stream")
		noTools, _ := cmd.Flags().GetBool("no-tools")

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

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
			fmt.Println()
		}()

		return c.Run(ctx, os.Stdin)
	},
}
