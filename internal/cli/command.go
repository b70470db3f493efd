package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/bilingual/internal"
	"codeberg.org/snonux/bilingual/internal/translation"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bilingual --book-name <book.epub>",
		Short: "Bilingual EPUB Maker",
		Long: `bilingual translates the paragraphs of an EPUB book and writes a copy
in which every paragraph is followed by its translation.

Metadata, table of contents, styles and images are kept as they are.
The result is written next to the input as <name>_bilingual.epub.

Examples:
  bilingual --book-name lemo.epub                 # Translate with ChatGPT
  bilingual --book-name lemo.epub --test          # Only translate the first batches
  bilingual --book-name lemo.epub -m gpt3 --no-limit
  bilingual --list-models                         # Show models for the current key`,
		Args:          cobra.NoArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	// Accept --book_name and friends as well
	rootCmd.Flags().SetNormalizeFunc(normalizeFlagName)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.bilingual.yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")

	// Local flags
	cmd.Flags().StringVar(&flags.BookName, "book-name", "", "Your epub book name")
	cmd.Flags().StringVarP(&flags.Model, "model", "m", flags.Model, "Translation model: "+strings.Join(translation.Providers, ", "))
	cmd.Flags().IntVar(&flags.BatchSize, "batch-size", flags.BatchSize, "Sections translated per round (1 to 5)")
	cmd.Flags().StringVar(&flags.Language, "language", flags.Language, "Target language")
	cmd.Flags().BoolVar(&flags.NoLimit, "no-limit", false, "Do not pause between requests (for paid API plans)")
	cmd.Flags().BoolVar(&flags.Test, "test", false, "Only translate the first 20 batches so the result can be checked quickly")
	cmd.Flags().StringVar(&flags.CachePath, "cache", "", "SQLite translation memory to reuse translations across runs")
	cmd.Flags().BoolVar(&flags.JSONBatch, "json-batch", false, "Send each batch as one JSON request (chatgpt only)")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")

	// Credentials
	cmd.Flags().StringVar(&flags.OpenAIKey, "openai-key", "", "OpenAI API key (default $OPENAI_API_KEY)")
	cmd.Flags().StringVar(&flags.GeminiKey, "gemini-key", "", "Gemini API key (default $GEMINI_API_KEY)")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

// normalizeFlagName maps underscores to dashes so both spellings work
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("translate.model", cmd.Flags().Lookup("model"))
	viper.BindPFlag("translate.batch_size", cmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("translate.language", cmd.Flags().Lookup("language"))
	viper.BindPFlag("translate.no_limit", cmd.Flags().Lookup("no-limit"))
	viper.BindPFlag("translate.json_batch", cmd.Flags().Lookup("json-batch"))
	viper.BindPFlag("cache.path", cmd.Flags().Lookup("cache"))
}

// ApplyConfig fills flags the user did not set from the config file
func ApplyConfig(cmd *cobra.Command, flags *Flags) {
	if !cmd.Flags().Changed("model") && viper.IsSet("translate.model") {
		flags.Model = viper.GetString("translate.model")
	}
	if !cmd.Flags().Changed("batch-size") && viper.IsSet("translate.batch_size") {
		flags.BatchSize = viper.GetInt("translate.batch_size")
	}
	if !cmd.Flags().Changed("language") && viper.IsSet("translate.language") {
		flags.Language = viper.GetString("translate.language")
	}
	if !cmd.Flags().Changed("no-limit") && viper.IsSet("translate.no_limit") {
		flags.NoLimit = viper.GetBool("translate.no_limit")
	}
	if !cmd.Flags().Changed("json-batch") && viper.IsSet("translate.json_batch") {
		flags.JSONBatch = viper.GetBool("translate.json_batch")
	}
	if !cmd.Flags().Changed("cache") && viper.IsSet("cache.path") {
		flags.CachePath = viper.GetString("cache.path")
	}
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".bilingual" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bilingual")
	}

	// Environment variables
	viper.SetEnvPrefix("BILINGUAL")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from the flag, environment or config
func GetOpenAIKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	// Then check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("openai.key")
}

// GetGeminiKey retrieves the Gemini API key from the flag, environment or config
func GetGeminiKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("gemini.key")
}
