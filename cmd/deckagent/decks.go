package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var decksCmd = &cobra.Command{
	Use:   "decks",
	Short: "List ingested decks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		decks, err := eng.ListDecks(cmd.Context())
		if err != nil {
			return err
		}
		if len(decks) == 0 {
			fmt.Println("no decks ingested")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILENAME\tFORMAT\tSLIDES\tSTATUS\tCREATED")
		for _, d := range decks {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
				d.ID, d.Filename, d.Format, d.SlideCount, d.Status, d.CreatedAt)
		}
		return w.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <deck-id>",
	Short: "Delete a deck and all its data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDeckID(args[0])
		if err != nil {
			return err
		}
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.DeleteDeck(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("deck %d deleted\n", id)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print database row counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		st, err := eng.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("decks       %d\n", st.Decks)
		fmt.Printf("slides      %d\n", st.Slides)
		fmt.Printf("elements    %d\n", st.Elements)
		fmt.Printf("embeddings  %d\n", st.Embeddings)
		fmt.Printf("expansions  %d\n", st.Expansions)
		fmt.Printf("searches    %d\n", st.Searches)
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex <deck-id>",
	Short: "Embed stored elements that are missing a vector",
	Long: `Reindex computes embeddings for elements ingested while no embedding
model was configured, making the deck available to vector search.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDeckID(args[0])
		if err != nil {
			return err
		}
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		n, err := eng.Reindex(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("%d elements embedded\n", n)
		return nil
	},
}
