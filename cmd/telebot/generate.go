package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgard/telebot/internal/gemini"
)

func generateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <bot-name> <niche...>",
		Short: "Generate a profile description and welcome message with Gemini",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Generator == nil {
				return gemini.ErrDisabled
			}

			content, err := a.Generator.GenerateBotContent(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Description:\n%s\n\nWelcome message:\n%s\n", content.Description, content.WelcomeMessage)
			return nil
		},
	}
}
