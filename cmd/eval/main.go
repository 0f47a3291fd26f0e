// Command eval scores the structure classifier against labeled decks.
//
// Usage:
//
//	go run ./cmd/eval --sample
//	go run ./cmd/eval --labels testdata/os-intro.json
//	go run ./cmd/eval --labels a.json --labels b.json --json > reports.json
//
// A labels file is JSON:
//
//	{
//	  "name": "os-intro",
//	  "deck": "lectures/os-intro.pptx",
//	  "labels": [
//	    {"slide_index": 0, "content_type": "main_title", "level": 1},
//	    {"slide_index": 3, "content_type": "body", "level": 3,
//	     "parent_path": ["操作系统原理", "第一章 进程管理"]}
//	  ]
//	}
//
// level and parent_path are optional; omitted fields are not scored.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/qixuan-zhu/deckagent/eval"
	"github.com/qixuan-zhu/deckagent/outline"
)

// stringSlice implements flag.Value for multi-value string flags.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ", ") }
func (s *stringSlice) Set(val string) error {
	*s = append(*s, val)
	return nil
}

func main() {
	var labelFiles stringSlice
	flag.Var(&labelFiles, "labels", "Labeled dataset JSON file (repeatable)")
	sample := flag.Bool("sample", false, "Run the built-in sample dataset")
	jsonOut := flag.Bool("json", false, "Print full reports as JSON to stdout")
	minAccuracy := flag.Float64("min-accuracy", 0, "Exit nonzero when type accuracy falls below this")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	var datasets []*eval.Dataset
	if *sample {
		md, ds := eval.SampleDataset()
		tmpDir, err := os.MkdirTemp("", "deckagent-eval-*")
		if err != nil {
			fmt.Fprintf(os.Stderr, "creating temp dir: %v\n", err)
			os.Exit(1)
		}
		defer os.RemoveAll(tmpDir)
		path := filepath.Join(tmpDir, "sample.md")
		if err := os.WriteFile(path, md, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "writing sample deck: %v\n", err)
			os.Exit(1)
		}
		ds.Deck = path
		datasets = append(datasets, ds)
	}
	for _, path := range labelFiles {
		ds, err := eval.LoadDataset(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		datasets = append(datasets, ds)
	}
	if len(datasets) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to evaluate: pass --labels or --sample")
		os.Exit(2)
	}

	ev := eval.NewEvaluator(outline.DefaultConfig())
	var reports []*eval.Report
	failed := false
	for _, ds := range datasets {
		rep, err := ev.Run(ds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "evaluating %s: %v\n", ds.Name, err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, rep.Summary())
		if *minAccuracy > 0 && rep.TypeAccuracy < *minAccuracy {
			fmt.Fprintf(os.Stderr, "FAIL: %s type accuracy %.3f is below %.3f\n",
				ds.Name, rep.TypeAccuracy, *minAccuracy)
			failed = true
		}
		reports = append(reports, rep)
	}

	if *jsonOut {
		out, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "encoding reports: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	}
	if failed {
		os.Exit(1)
	}
}
