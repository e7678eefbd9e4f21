package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/notecompanion/internal/auth"
	"github.com/yolodolo42/notecompanion/internal/vault"
)

const appDirName = ".notecompanion"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "notecompanion",
		Short: "Chat with your markdown notes",
		Long: `notecompanion is a terminal assistant for a folder of markdown notes.

It searches notes, pulls notes from a date range into the conversation,
fetches YouTube transcripts and asks before doing anything you did not
request. "notecompanion serve" runs the completion proxy the assistant
talks to by default.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(viper.GetString("log_level"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunREPL(cmd.Context())
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.notecompanion/config.yaml)")
	rootCmd.PersistentFlags().String("vault", ".", "Directory of markdown notes")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider (proxy, openai, anthropic)")
	_ = viper.BindPFlag("vault", rootCmd.PersistentFlags().Lookup("vault"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := dataDir()
		cobra.CheckErr(err)

		if err := os.MkdirAll(dir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config directory: %v\n", err)
		}

		viper.AddConfigPath(dir)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("NOTECOMPANION")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Silently ignore missing config file - it's optional
	_ = viper.ReadInConfig()
}

// setupLogging installs a text slog handler on stderr as the default logger
func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, appDirName), nil
}

func getAuthManager() (*auth.Manager, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return auth.NewManager(dir)
}

func openVault() (*vault.Dir, error) {
	return vault.NewDir(viper.GetString("vault"))
}
