package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
)

var (
	searchURLs    []string
	searchGitHubs []string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query> [files...]",
	Short: "Load sources and run one query",
	Long: `Loads the given files, URLs and GitHub files in order, then prints every
line containing the query, ignoring case. Lines keep their load order.

Examples:
  linesearch search cloud notes.txt
  linesearch search --url https://example.com/data.txt error
  linesearch search --github https://github.com/org/repo/blob/main/notes.txt todo`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringArrayVar(&searchURLs, "url", nil, "fetch a URL before searching (repeatable)")
	searchCmd.Flags().StringArrayVar(&searchGitHubs, "github", nil, "fetch a GitHub file before searching (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, files := args[0], args[1:]

	a, err := newApp(appConfig)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	session := a.session

	for _, path := range files {
		if _, err := session.LoadFile(ctx, path); err != nil {
			return fmt.Errorf("%s %s: %w", session.Snapshot().Error, path, err)
		}
	}
	for _, u := range searchURLs {
		if _, err := session.LoadURL(ctx, u); err != nil {
			return fmt.Errorf("%s %s: %w", session.Snapshot().Error, u, err)
		}
	}
	for _, u := range searchGitHubs {
		if _, err := session.LoadGitHub(ctx, u); err != nil {
			return fmt.Errorf("%s %s: %w", session.Snapshot().Error, u, err)
		}
	}

	rs, applied, err := session.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: %w", session.Snapshot().Error, err)
	}
	if !applied {
		cmd.Println("Nothing to search: load at least one source with text and give a non-blank query.")
		return nil
	}

	if searchJSON {
		return outputSearchJSON(cmd, rs)
	}
	outputSearchText(cmd, rs)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, rs entities.ResultSet) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, rs entities.ResultSet) {
	cmd.Println(rs.Summary)
	for _, r := range rs.Items {
		cmd.Println()
		cmd.Printf("  %s\n", r.Content)
		if r.Source != "" {
			cmd.Printf("      Source: %s\n", r.Source)
		}
	}
}
