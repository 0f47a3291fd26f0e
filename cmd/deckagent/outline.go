package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qixuan-zhu/deckagent"
)

var outlineJSONFlag bool

func init() {
	outlineCmd.Flags().BoolVar(&outlineJSONFlag, "json", false, "print the tree as JSON")
}

var outlineCmd = &cobra.Command{
	Use:   "outline <deck-id>",
	Short: "Print the stored structure of a deck as a tree",
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

		nodes, err := eng.Outline(cmd.Context(), id)
		if err != nil {
			return err
		}
		if outlineJSONFlag {
			return printJSON(nodes)
		}
		printOutline(nodes, 0)
		return nil
	},
}

func printOutline(nodes []*deckagent.OutlineNode, depth int) {
	for _, n := range nodes {
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s[%d] %s  (%s)\n", strings.Repeat("  ", depth), n.SlideIndex, clip(title, 60), n.ContentType)
		printOutline(n.Children, depth+1)
	}
}

var slideCmd = &cobra.Command{
	Use:   "slide <deck-id> <index>",
	Short: "Print one slide with its classification",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDeckID(args[0])
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil || index < 0 {
			return fmt.Errorf("invalid slide index %q", args[1])
		}
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		detail, err := eng.GetSlide(cmd.Context(), id, index)
		if err != nil {
			return err
		}
		return printJSON(detail)
	},
}
