// Package main is the entry point for the telebot CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgard/telebot/internal/app"
	"github.com/edgard/telebot/internal/config"
	"github.com/edgard/telebot/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "telebot",
		Short:         "Manage Telegram bot credentials and discover their chats",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "./config.yaml", "Path to configuration file")
	flags.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.String("db", config.DefaultDBPath, "Path to the sqlite database")
	_ = v.BindPFlag("logger.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("database.path", flags.Lookup("db"))

	root.AddCommand(
		serveCmd(v),
		botsCmd(v),
		discoverCmd(v),
		sendCmd(v),
		generateCmd(v),
	)
	return root
}

// setup loads configuration, installs the logger and opens the application.
func setup(cmd *cobra.Command, v *viper.Viper) (*app.App, error) {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadConfigWith(v, cfgPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Debug("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	return app.New(cmd.Context(), cfg, log)
}
