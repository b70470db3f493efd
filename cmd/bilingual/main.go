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

	"codeberg.org/snonux/bilingual/internal/cli"
	"codeberg.org/snonux/bilingual/internal/models"
	"codeberg.org/snonux/bilingual/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, flags)
	}

	// Stop between requests on Ctrl-C instead of leaving a half written book
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, flags *cli.Flags) error {
	logger := cli.NewLogger(os.Stderr, flags.Verbose)
	slog.SetDefault(logger)

	// Fill in everything the command line left unset from the config file
	cli.ApplyConfig(cmd, flags)

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey(flags.OpenAIKey), viper.GetString("openai.base_url"))
		return lister.ListAvailableModels(cmd.Context(), os.Stdout)
	}

	// Create processor
	proc := processor.NewProcessor(flags, logger)
	if _, err := proc.ProcessBook(cmd.Context()); err != nil {
		return err
	}
	return nil
}
