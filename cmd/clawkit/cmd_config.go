package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/clawkit/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configPathCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		values, err := config.ListValues(cfg, true)
		if err != nil {
			return fmt.Errorf("list config: %w", err)
		}

		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE")
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%v\n", k, values[k])
		}
		return w.Flush()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := config.GetValue(cfgPath, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetValue(cfgPath, args[0], args[1]); err != nil {
			return err
		}
		display := args[1]
		if config.IsSecretKey(args[0]) {
			display = "***"
		}
		fmt.Fprintf(os.Stdout, "Set %s = %s\n", args[0], display)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(os.Stdout, cfgPath)
		return nil
	},
}
