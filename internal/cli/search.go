package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/notecompanion/internal/agent"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search notes for every word of a query",
	Long: `Search the vault for notes containing every word of the query,
case-insensitively, and print the matches.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Bool("json", false, "Print the raw tool result as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}

	ledger := agent.NewLedger(slog.Default())
	dispatcher := agent.NewDispatcher(ledger, nil,
		agent.WithVault(v),
		agent.WithLogger(slog.Default()),
	)

	inv := ledger.Add(agent.Invocation{
		ToolCallID: uuid.NewString(),
		ToolName:   agent.ToolSearchNotes,
		Args:       map[string]any{"query": strings.Join(args, " ")},
	})

	view := dispatcher.Render(cmd.Context(), inv)
	if view.Done == nil {
		return fmt.Errorf("search did not start")
	}
	select {
	case <-view.Done:
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}

	settled, _ := ledger.Get(inv.ToolCallID)
	if settled.Result == nil {
		return fmt.Errorf("search finished without a result")
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		var pretty any
		if err := json.Unmarshal([]byte(*settled.Result), &pretty); err != nil {
			fmt.Fprintln(out, *settled.Result)
			return nil
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(pretty)
	}

	fmt.Fprintln(out, renderView(terminalWidth(), dispatcher.Render(cmd.Context(), settled)))
	if agent.IsErrorResult(*settled.Result) {
		return fmt.Errorf("search failed")
	}
	return nil
}
