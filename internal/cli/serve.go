package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/notecompanion/internal/proxy"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat completion proxy",
	Long: `Run the HTTP proxy that forwards chat completion requests upstream
with the server's OpenAI key.

Environment:
  OPENAI_API_KEY          upstream key (required)
  ENABLE_USER_MANAGEMENT  "true" to require client keys verified with Unkey
  UNKEY_API_ID            Unkey API the client keys belong to
  UNKEY_ROOT_KEY          Unkey root key used for verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", proxy.DefaultAddr, "Listen address")
	_ = viper.BindPFlag("proxy.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := proxy.ConfigFromViper(viper.GetViper())
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY must be set to run the proxy")
	}
	if cfg.EnableUserManagement && cfg.UnkeyRootKey == "" {
		slog.Warn("user management is on but UNKEY_ROOT_KEY is empty")
	}

	srv := proxy.NewServer(cfg, proxy.WithLogger(slog.Default()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Proxy listening on %s\n", srv.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}
