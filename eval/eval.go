// Package eval measures the structure classifier against hand-labeled
// decks: per-slide content type, outline level and hierarchy path.
package eval

import (
	"encoding/json"
	"fmt"
	"os"
)

// Label is the expected classification for one slide. Level zero and a
// nil ParentPath mean the field is not asserted.
type Label struct {
	SlideIndex  int      `json:"slide_index"`
	ContentType string   `json:"content_type"`
	Level       int      `json:"level,omitempty"`
	ParentPath  []string `json:"parent_path,omitempty"`
}

// Dataset is one labeled deck.
type Dataset struct {
	Name   string  `json:"name"`
	Deck   string  `json:"deck"`
	Labels []Label `json:"labels"`
}

// LoadDataset reads a labeled dataset from a JSON file. A relative Deck
// path is kept as is and resolved against the working directory.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	if ds.Deck == "" {
		return nil, fmt.Errorf("dataset %s: deck path is empty", path)
	}
	if len(ds.Labels) == 0 {
		return nil, fmt.Errorf("dataset %s: no labels", path)
	}
	if ds.Name == "" {
		ds.Name = path
	}
	return &ds, nil
}

// SampleDataset returns a small built-in Marp-style deck and its ground
// truth, for smoke runs and tests. The caller writes the deck bytes to a
// file and sets Dataset.Deck before evaluating.
func SampleDataset() ([]byte, *Dataset) {
	deck := []byte(`# 操作系统原理

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
`)
	ds := &Dataset{
		Name: "built-in sample",
		Labels: []Label{
			{SlideIndex: 0, ContentType: "main_title", Level: 1},
			{SlideIndex: 1, ContentType: "toc", Level: 1},
			{SlideIndex: 2, ContentType: "chapter_title", Level: 2},
			{SlideIndex: 3, ContentType: "body", Level: 3, ParentPath: []string{"操作系统原理", "第一章 进程管理"}},
			{SlideIndex: 4, ContentType: "body", Level: 3},
			{SlideIndex: 5, ContentType: "acknowledgement", Level: 1},
		},
	}
	return deck, ds
}
