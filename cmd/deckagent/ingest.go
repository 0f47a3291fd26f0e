package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qixuan-zhu/deckagent"
)

var (
	ingestForce       bool
	ingestDescription string
)

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-ingest even when the file content is unchanged")
	ingestCmd.Flags().StringVar(&ingestDescription, "description", "", "description stored with the deck")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <deck-file>...",
	Short: "Decode, classify and index decks into the database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		for _, path := range args {
			var opts []deckagent.IngestOption
			if ingestForce {
				opts = append(opts, deckagent.WithForce())
			}
			if ingestDescription != "" {
				opts = append(opts, deckagent.WithMetadata(map[string]string{"description": ingestDescription}))
			}
			res, err := eng.Ingest(cmd.Context(), path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if res.Unchanged {
				fmt.Printf("deck %d  %s  unchanged\n", res.DeckID, res.Filename)
				continue
			}
			fmt.Printf("deck %d  %s  %d slides  %d elements  %d embedded  %dms\n",
				res.DeckID, res.Filename, res.SlideCount, res.Elements, res.Embedded, res.ElapsedMs)
		}
		return nil
	},
}
