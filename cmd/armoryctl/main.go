// Package main provides armoryctl, a command-line tool for rehearsing
// equipment distribution and inspecting armories and the blacklist.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "armoryctl",
		Short:         "Armory and equipment distribution tool",
		Long:          `armoryctl rehearses battle-start equipment distribution against the configured content and storage, and inspects party armories and the item blacklist.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "configs/dev.yaml", "path to configuration file")

	cmd.AddCommand(newDistributeCmd(opts))
	cmd.AddCommand(newBlacklistCmd(opts))
	cmd.AddCommand(newArmoryCmd(opts))
	return cmd
}
