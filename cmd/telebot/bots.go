package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgard/telebot/internal/dashboard"
	"github.com/edgard/telebot/internal/discovery"
	"github.com/edgard/telebot/internal/store"
	"github.com/edgard/telebot/internal/telegram"
)

func botsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bots",
		Short: "List and manage stored bots",
	}
	cmd.AddCommand(botsListCmd(v), botsShowCmd(v), botsAddCmd(v), botsRemoveCmd(v))
	return cmd
}

func botsListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored bots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			bots := a.Bots.List()
			if len(bots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bots stored.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tUSERNAME\tCHAT\tTOKEN")
			for _, b := range bots {
				chat := b.ChatID
				if chat == "" {
					chat = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Name, b.Username, chat, telegram.RedactToken(b.Token))
			}
			return tw.Flush()
		},
	}
}

func botsShowCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored bot as JSON",
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

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				store.BotRecord
				Link string `json:"link"`
			}{rec, dashboard.BotLink(rec.Name)})
		},
	}
}

func botsAddCmd(v *viper.Viper) *cobra.Command {
	var (
		discover    bool
		description string
	)

	cmd := &cobra.Command{
		Use:   "add <token>",
		Short: "Verify a bot token and store the bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			token := args[0]

			identity, err := a.Client.GetMe(ctx, token)
			a.Metrics.Lookup(err)
			if err != nil {
				return fmt.Errorf("failed to verify token: %w", err)
			}

			rec := store.BotRecord{
				ID:          uuid.NewString(),
				Token:       token,
				Name:        identity.FirstName,
				Username:    identity.Username,
				Description: description,
				CreatedAt:   a.Clock.Now().UnixMilli(),
			}

			if discover {
				fmt.Fprintf(cmd.OutOrStdout(), "Send any message to @%s to link its chat...\n", identity.Username)
				result, err := discovery.Await(ctx, a.NewPoller(), token)
				if err != nil {
					return fmt.Errorf("chat discovery interrupted: %w", err)
				}
				rec.ChatID = result.ChatID
				fmt.Fprintf(cmd.OutOrStdout(), "Chat %s linked (from %s)\n", result.ChatID, result.SenderName)
			}

			if _, err := a.Bots.Save(ctx, rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%s) as %s\n", rec.Name, rec.Username, rec.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&discover, "discover", false, "Wait for a message to the bot and store its chat")
	cmd.Flags().StringVar(&description, "description", "", "Profile description to store with the bot")
	return cmd
}

func botsRemoveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a stored bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Bots.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
