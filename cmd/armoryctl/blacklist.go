package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/armory/internal/app"
	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/observability"
)

func newBlacklistCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Inspect the item blacklist",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "test <item[@modifier]>...",
		Short: "Report whether items pass the blacklist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger, err := observability.NewLogger(cfg.Logging, "armoryctl")
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			content, err := app.LoadContent(cfg.Content, observability.Component(logger, "content"))
			if err != nil {
				return err
			}
			filter := app.LoadBlacklist(cfg.Blacklist, observability.Component(logger, "blacklist"))

			blocked := 0
			for _, raw := range args {
				id, err := item.ParseIdentity(raw)
				if err != nil {
					return err
				}
				verdict := "pass"
				if _, known := content.Catalog.Resolve(id); !known {
					verdict = "unknown"
				} else if !filter.TestIdentity(content.Catalog, id) {
					verdict = "blocked"
				}
				if verdict != "pass" {
					blocked++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, verdict)
			}
			if blocked > 0 {
				return fmt.Errorf("%d of %d items rejected", blocked, len(args))
			}
			return nil
		},
	})
	return cmd
}
