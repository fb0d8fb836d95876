package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/clawkit/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("ClawKit Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.LLM.BaseURL = prompt(scanner, "API base URL", cfg.LLM.BaseURL)
		cfg.LLM.APIKey = prompt(scanner, "API key", cfg.LLM.APIKey)
		cfg.LLM.Model = prompt(scanner, "Model name", cfg.LLM.Model)

		timeoutStr := prompt(scanner, "Request timeout (seconds)", strconv.Itoa(cfg.LLM.TimeoutSeconds))
		if n, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.LLM.TimeoutSeconds = n
		}

		roundsStr := prompt(scanner, "Max tool rounds", strconv.Itoa(cfg.MaxToolRounds))
		if n, err := strconv.Atoi(roundsStr); err == nil {
			cfg.MaxToolRounds = n
		}

		cfg.Brave.APIKey = prompt(scanner, "Brave API key (optional)", cfg.Brave.APIKey)

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
