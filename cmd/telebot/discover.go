package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgard/telebot/internal/discovery"
)

func discoverCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <id>",
		Short: "Wait for a message to a stored bot and remember its chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.Bots.Get(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Waiting for a message to %s...\n", rec.Name)
			result, err := discovery.Await(cmd.Context(), a.NewPoller(), rec.Token)
			if err != nil {
				return fmt.Errorf("chat discovery interrupted: %w", err)
			}

			rec.ChatID = result.ChatID
			if err := a.Bots.Update(cmd.Context(), rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chat %s linked (from %s)\n", result.ChatID, result.SenderName)
			return nil
		},
	}
}
