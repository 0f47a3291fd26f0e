package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qixuan-zhu/deckagent"
)

var (
	searchDeckID   int64
	searchLimit    int
	searchJSONFlag bool
)

func init() {
	searchCmd.Flags().Int64Var(&searchDeckID, "deck", 0, "restrict results to one deck")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSONFlag, "json", false, "print results as JSON")
}

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search indexed slide content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		var opts []deckagent.SearchOption
		if searchDeckID > 0 {
			opts = append(opts, deckagent.WithDeck(searchDeckID))
		}
		if searchLimit > 0 {
			opts = append(opts, deckagent.WithMaxResults(searchLimit))
		}

		resp, err := eng.Search(cmd.Context(), query, opts...)
		if err != nil {
			return err
		}
		if searchJSONFlag {
			return printJSON(resp)
		}
		if len(resp.Results) == 0 {
			fmt.Println("no results")
			return nil
		}
		for i, r := range resp.Results {
			title := r.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%2d. [%.3f] %s slide %d  %s\n", i+1, r.Score, r.Filename, r.SlideIndex, clip(title, 50))
			text := r.Snippet
			if text == "" {
				text = r.Text
			}
			fmt.Printf("    %s\n", clip(text, 160))
		}
		return nil
	},
}
