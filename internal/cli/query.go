package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EricA1019/Godot-MCP/internal/usecase"
)

var (
	queryKind    string
	queryLimit   int
	querySnippet bool
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search the index",
	Long: `Search indexed files with a free-text query. All query terms must
occur in a document for it to match.

Examples:
  godot-mcp query "scene validator"
  godot-mcp query "signal" --kind code --snippet --json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryKind, "kind", "", "restrict hits to a kind (md, code, scene, config, asset, other)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "k", -1, "maximum hits (0 returns none)")
	queryCmd.Flags().BoolVar(&querySnippet, "snippet", false, "include a snippet excerpt per hit")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	// -1 is the unset sentinel; an explicit --limit 0 must reach the
	// store and return no hits.
	var limit *int
	if queryLimit >= 0 {
		limit = &queryLimit
	}
	hits, err := st.SearchAdvanced(args[0], queryKind, usecase.ResolveLimit(limit), querySnippet)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(hits, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(hits), args[0])
	for i, h := range hits {
		fmt.Printf("[%d] %s (%s, score %.3f)\n", i+1, h.Path, h.Kind, h.Score)
		if h.Snippet != "" {
			fmt.Printf("    %s\n", h.Snippet)
		}
	}
	return nil
}
