// Command deckagent is the command line interface to the deck engine:
// ingest slide decks, inspect their classified structure, generate
// teaching material and search the indexed content.
//
// Typical session:
//
//	deckagent analyze lecture.pptx
//	deckagent ingest lecture.pptx
//	deckagent outline 1
//	deckagent expand 1 --slides 3,5 --output ./out
//	deckagent search "动态规划的基本思想"
//
// Configuration is read from config.yaml in the working directory or
// $HOME/.deckagent, overridden by DECKAGENT_* environment variables and
// flags. API keys are taken from the provider's conventional variable
// (SILICONFLOW_API_KEY and friends) when not set explicitly.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
