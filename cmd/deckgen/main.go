// Package main is the command line front end of the deck generator: build a
// deck from listing links, inspect what a listing yields, or write a starter
// template.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sfapps-deck-go/config"
	"sfapps-deck-go/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deckgen",
		Short: "Generate SFApps \"Best Apps\" presentations from AppExchange listings",
		Long: `deckgen scrapes AppExchange listings for the app name, developer and logo
and fills the SFApps presentation template: a cover slide, one slide per app
and a closing slide linking to the full list.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newBuildCmd(), newExtractCmd(), newTemplateCmd())
	return root
}

// loadConfig 读取配置并按命令行参数创建 logger
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
