package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func sendCmd(v *viper.Viper) *cobra.Command {
	var test bool

	cmd := &cobra.Command{
		Use:   "send <id> [text...]",
		Short: "Send a Markdown message to a stored bot's chat",
		Args:  cobra.MinimumNArgs(1),
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
			if !rec.HasChat() {
				return fmt.Errorf("bot %s has no chat yet; run discover first", rec.ID)
			}

			text := strings.Join(args[1:], " ")
			if test || text == "" {
				text = a.Config.Messages.Test
			}

			err = a.Client.SendMessage(cmd.Context(), rec.Token, rec.ChatID, text)
			a.Metrics.Sent(err)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent to chat %s\n", rec.ChatID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&test, "test", false, "Send the configured test message")
	return cmd
}
