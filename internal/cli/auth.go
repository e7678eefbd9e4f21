package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/notecompanion/internal/agent"
	"github.com/yolodolo42/notecompanion/internal/llm"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage provider credentials",
	Long: `Store, list, and remove the proxy token and provider API keys.

Supported providers:
  proxy      - Note Companion proxy (token only needed when user management is on)
  openai     - OpenAI (requires API key)
  anthropic  - Anthropic Claude (requires API key)`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <provider> [key]",
	Short: "Store a key for a provider",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAuthSet,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected providers",
	Args:  cobra.NoArgs,
	RunE:  runAuthList,
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove <provider>",
	Short: "Remove a stored key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthRemove,
}

var authDefaultCmd = &cobra.Command{
	Use:   "default [provider]",
	Short: "Get or set the default provider",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthDefault,
}

var authTestCmd = &cobra.Command{
	Use:   "test <provider>",
	Short: "Send a one-line request to check a provider works",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthTest,
}

const authTestTimeout = 15 * time.Second

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)
	authCmd.AddCommand(authDefaultCmd)
	authCmd.AddCommand(authTestCmd)
}

func parseProviderArg(arg string) (llm.ProviderID, error) {
	return llm.ParseProviderID(strings.ToLower(strings.TrimSpace(arg)))
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	providerID, err := parseProviderArg(args[0])
	if err != nil {
		return err
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	key := ""
	if len(args) == 2 {
		key = args[1]
	} else {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("no key given and stdin is not a terminal")
		}
		if envVar := llm.EnvVarForProvider(providerID); envVar != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Tip: You can also set the %s environment variable\n\n", envVar)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Enter key for %s: ", providerID)
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = string(keyBytes)
	}

	if err := manager.SetAPIKey(providerID, key); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored key for %s\n", providerID)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	connected := manager.ListConnected()
	defaultProvider := manager.GetDefaultProvider()

	if len(connected) == 0 {
		fmt.Fprintln(out, "No providers connected.")
		fmt.Fprintln(out, "\nUse 'notecompanion auth set <provider>' to store a key.")
		fmt.Fprintln(out, "Or set environment variables:")
		for _, id := range llm.AllProviderIDs() {
			fmt.Fprintf(out, "  %s (%s)\n", llm.EnvVarForProvider(id), id)
		}
		fmt.Fprintf(out, "\nDefault provider: %s\n", defaultProvider)
		return nil
	}

	fmt.Fprintln(out, "Connected providers:")
	for _, id := range connected {
		marker := "  "
		if id == defaultProvider {
			marker = "* "
		}
		fmt.Fprintf(out, "%s%s\n", marker, id)
	}

	fmt.Fprintf(out, "\n* = default provider (%s)\n", defaultProvider)
	return nil
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	providerID, err := parseProviderArg(args[0])
	if err != nil {
		return err
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	if err := manager.RemoveCredential(providerID); err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed key for %s\n", providerID)
	return nil
}

func runAuthDefault(cmd *cobra.Command, args []string) error {
	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Default provider: %s\n", manager.GetDefaultProvider())
		return nil
	}

	providerID, err := parseProviderArg(args[0])
	if err != nil {
		return err
	}
	if providerID != llm.ProviderProxy && !manager.HasCredential(providerID) {
		return fmt.Errorf("provider %s is not connected. Store a key first with 'notecompanion auth set %s'", providerID, providerID)
	}

	if err := manager.SetDefaultProvider(providerID); err != nil {
		return fmt.Errorf("failed to set default provider: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Default provider set to: %s\n", providerID)
	return nil
}

func runAuthTest(cmd *cobra.Command, args []string) error {
	providerID, err := parseProviderArg(args[0])
	if err != nil {
		return err
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	provider, err := agent.CreateProvider(manager, providerID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), authTestTimeout)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Testing %s (%s)...\n", provider.Name(), provider.DefaultModel())
	_, err = provider.Chat(ctx, &llm.ChatRequest{
		SystemPrompt: "You are a test assistant.",
		Messages:     []llm.Message{{Role: "user", Content: "Say 'ok' and nothing else."}},
		MaxTokens:    10,
	})
	if err != nil {
		return fmt.Errorf("%s test failed: %w", providerID, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is working\n", providerID)
	return nil
}
