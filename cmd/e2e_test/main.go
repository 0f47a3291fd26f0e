package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/qixuan-zhu/deckagent"
)

// A small Marp-style lecture deck, enough to exercise every stage.
const sampleDeck = `# 操作系统原理

主讲：王芳

---

# 目录

- 第一章 进程管理
- 第二章 内存管理

---

# 第一章 进程管理

---

## 进程的概念

进程是程序在一个数据集合上的一次运行过程，是系统进行资源分配和调度的基本单位。

- 进程具有动态性和并发性
- 每个进程拥有独立的地址空间

---

## 进程调度算法

常见的调度算法包括先来先服务、短作业优先和时间片轮转。

- 先来先服务按到达顺序执行
- 时间片轮转保证响应时间

---

# 谢谢聆听
`

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	apiKey := os.Getenv("SILICONFLOW_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SILICONFLOW_API_KEY not set")
		os.Exit(1)
	}

	tmpDir, _ := os.MkdirTemp("", "deckagent-e2e-*")
	defer os.RemoveAll(tmpDir)

	deckPath := filepath.Join(tmpDir, "os-lecture.md")
	if err := os.WriteFile(deckPath, []byte(sampleDeck), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "writing sample deck: %v\n", err)
		os.Exit(1)
	}

	cfg := deckagent.DefaultConfig()
	cfg.DBPath = filepath.Join(tmpDir, "test.db")

	engine, err := deckagent.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Ingest
	fmt.Fprintf(os.Stderr, "\n=== INGESTING %s ===\n", deckPath)
	res, err := engine.Ingest(ctx, deckPath, deckagent.WithMetadata(map[string]string{
		"course": "操作系统原理", "origin": "e2e",
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Ingested deck_id=%d slides=%d elements=%d embedded=%d\n",
		res.DeckID, res.SlideCount, res.Elements, res.Embedded)

	// Outline
	fmt.Fprintf(os.Stderr, "\n=== OUTLINE ===\n")
	nodes, err := engine.Outline(ctx, res.DeckID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "outline error: %v\n", err)
		os.Exit(1)
	}
	printNodes(nodes, 0)

	// Expand one body slide
	fmt.Fprintf(os.Stderr, "\n=== EXPANDING slide 3 ===\n")
	results, err := engine.Expand(ctx, res.DeckID, []int{3})
	if err != nil {
		fmt.Fprintf(os.Stderr, "expand error: %v\n", err)
		os.Exit(1)
	}
	for _, r := range results {
		fmt.Fprintf(os.Stderr, "slide %d: %d explanations, %d examples, %d references, %d quiz (%d tokens)\n",
			r.SlideIndex, len(r.Explanations), len(r.CodeExamples), len(r.References), len(r.Quiz), r.TotalTokens)
	}

	// Search
	query := "进程调度算法有哪些"
	fmt.Fprintf(os.Stderr, "\n=== SEARCHING: %s ===\n", query)
	resp, err := engine.Search(ctx, query, deckagent.WithMaxResults(5))
	if err != nil {
		fmt.Fprintf(os.Stderr, "search error: %v\n", err)
		os.Exit(1)
	}

	// Print just the hit views to stdout
	type hitView struct {
		ElementID  int64    `json:"element_id"`
		SlideIndex int      `json:"slide_index"`
		Title      string   `json:"title"`
		Kind       string   `json:"kind"`
		ParentPath []string `json:"parent_path,omitempty"`
		Score      float64  `json:"score"`
		Snippet    string   `json:"snippet,omitempty"`
		TextLen    int      `json:"text_length"`
	}

	var hits []hitView
	for _, h := range resp.Results {
		hits = append(hits, hitView{
			ElementID:  h.ElementID,
			SlideIndex: h.SlideIndex,
			Title:      h.Title,
			Kind:       h.Kind,
			ParentPath: h.ParentPath,
			Score:      h.Score,
			Snippet:    h.Snippet,
			TextLen:    len(h.Text),
		})
	}

	out, _ := json.MarshalIndent(hits, "", "  ")
	fmt.Println(string(out))
}

func printNodes(nodes []*deckagent.OutlineNode, depth int) {
	for _, n := range nodes {
		pad := ""
		for i := 0; i < depth; i++ {
			pad += "  "
		}
		fmt.Fprintf(os.Stderr, "%s[%d] %s (%s)\n", pad, n.SlideIndex, n.Title, n.ContentType)
		printNodes(n.Children, depth+1)
	}
}
