package eval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qixuan-zhu/deckagent/outline"
)

func writeSample(t *testing.T) *Dataset {
	t.Helper()
	md, ds := SampleDataset()
	path := filepath.Join(t.TempDir(), "sample.md")
	if err := os.WriteFile(path, md, 0o644); err != nil {
		t.Fatal(err)
	}
	ds.Deck = path
	return ds
}

func TestEvaluatorSampleDataset(t *testing.T) {
	ds := writeSample(t)

	rep, err := NewEvaluator(outline.Config{}).Run(ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.TotalSlides != 6 {
		t.Fatalf("total slides = %d, want 6", rep.TotalSlides)
	}
	if rep.TypeAccuracy != 1.0 {
		t.Errorf("type accuracy = %.2f, want 1.0\n%s", rep.TypeAccuracy, rep.Summary())
	}
	if rep.LevelAccuracy != 1.0 {
		t.Errorf("level accuracy = %.2f, want 1.0\n%s", rep.LevelAccuracy, rep.Summary())
	}
	if rep.PathAccuracy != 1.0 {
		t.Errorf("path accuracy = %.2f, want 1.0\n%s", rep.PathAccuracy, rep.Summary())
	}
	if len(rep.Results) != len(ds.Labels) {
		t.Errorf("got %d results, want %d", len(rep.Results), len(ds.Labels))
	}
}

func TestEvaluatorCountsMisses(t *testing.T) {
	ds := writeSample(t)
	ds.Labels[3].ContentType = "image_page"
	ds.Labels = append(ds.Labels, Label{SlideIndex: 99, ContentType: "body"})

	rep, err := NewEvaluator(outline.Config{}).Run(ds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Labeled != 7 {
		t.Fatalf("labeled = %d, want 7", rep.Labeled)
	}
	if rep.TypeCorrect != 5 {
		t.Errorf("type correct = %d, want 5\n%s", rep.TypeCorrect, rep.Summary())
	}
	if got := rep.Confusion["image_page"]["body"]; got != 1 {
		t.Errorf("confusion[image_page][body] = %d, want 1", got)
	}

	var body TypeMetrics
	for _, m := range rep.PerType {
		if m.ContentType == "body" {
			body = m
		}
	}
	if body.Support != 2 || body.Correct != 1 {
		t.Errorf("body metrics = support %d correct %d, want 2 and 1", body.Support, body.Correct)
	}

	sum := rep.Summary()
	if !strings.Contains(sum, "slide 99") {
		t.Errorf("summary does not mention the out-of-range label:\n%s", sum)
	}
	if !strings.Contains(sum, "misses:") {
		t.Errorf("summary does not list misses:\n%s", sum)
	}
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.json")
	content := `{"name":"os-intro","deck":"lecture.md","labels":[{"slide_index":0,"content_type":"main_title","level":1}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if ds.Name != "os-intro" {
		t.Errorf("name = %q, want %q", ds.Name, "os-intro")
	}
	if ds.Deck != "lecture.md" {
		t.Errorf("deck = %q, want %q", ds.Deck, "lecture.md")
	}
	if len(ds.Labels) != 1 || ds.Labels[0].ContentType != "main_title" {
		t.Errorf("labels = %+v", ds.Labels)
	}
}

func TestLoadDatasetRejectsEmpty(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "nodeck.json")
	if err := os.WriteFile(path, []byte(`{"name":"x","labels":[{"slide_index":0,"content_type":"body"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDataset(path); err == nil {
		t.Error("expected error for missing deck path")
	}

	path = filepath.Join(dir, "nolabels.json")
	if err := os.WriteFile(path, []byte(`{"name":"x","deck":"a.md","labels":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDataset(path); err == nil {
		t.Error("expected error for empty labels")
	}

	if _, err := LoadDataset(filepath.Join(dir, "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
