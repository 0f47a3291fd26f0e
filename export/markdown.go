// Package export renders analyzed decks and expansion results as
// markdown documents, JSON, and xlsx workbooks.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/qixuan-zhu/deckagent/expand"
	"github.com/qixuan-zhu/deckagent/outline"
)

// ExpansionMarkdown renders expansion results as a study document:
// header metadata, then one section per slide with the original content
// followed by the generated material.
func ExpansionMarkdown(source string, processedAt time.Time, slides []outline.SlideRecord, results []expand.Result) string {
	bySlide := make(map[int]outline.SlideRecord, len(slides))
	for _, s := range slides {
		bySlide[s.Index] = s
	}

	var b strings.Builder
	b.WriteString("# 内容扩展结果\n\n")
	fmt.Fprintf(&b, "**源文件**: %s\n", source)
	fmt.Fprintf(&b, "**处理时间**: %s\n", processedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**总幻灯片数**: %d\n\n", len(results))
	b.WriteString("## 扩展内容\n\n")

	for _, r := range results {
		title := r.Title
		if title == "" {
			title = "无标题"
		}
		fmt.Fprintf(&b, "### 幻灯片 %d: %s\n\n", r.SlideIndex, title)

		if s, ok := bySlide[r.SlideIndex]; ok && (len(s.Paragraphs) > 0 || len(s.Bullets) > 0) {
			b.WriteString("**原始内容**:\n")
			for _, p := range s.Paragraphs {
				fmt.Fprintf(&b, "- %s\n", p)
			}
			for _, bl := range s.Bullets {
				fmt.Fprintf(&b, "- %s\n", bl)
			}
			b.WriteString("\n")
		}

		if r.Skipped {
			fmt.Fprintf(&b, "**已跳过**: %s\n\n---\n\n", r.SkipReason)
			continue
		}

		if len(r.Explanations) > 0 {
			b.WriteString("**详细解释**:\n\n")
			for _, e := range r.Explanations {
				b.WriteString(e.Explanation + "\n\n")
			}
		}
		if len(r.CodeExamples) > 0 {
			b.WriteString("**代码示例**:\n\n")
			for _, ex := range r.CodeExamples {
				fmt.Fprintf(&b, "```%s\n%s\n```\n\n", ex.Language, ex.Code)
				if ex.Description != "" {
					b.WriteString(ex.Description + "\n\n")
				}
			}
		}
		if len(r.References) > 0 {
			b.WriteString("**参考资源**:\n\n")
			for _, ref := range r.References {
				fmt.Fprintf(&b, "- %s：%s\n", ref.Title, ref.Description)
			}
			b.WriteString("\n")
		}
		if len(r.Quiz) > 0 {
			b.WriteString("**测验**:\n\n")
			for _, q := range r.Quiz {
				fmt.Fprintf(&b, "问题：%s\n\n", q.Question)
				for _, key := range []string{"A", "B", "C", "D"} {
					if opt, ok := q.Options[key]; ok {
						fmt.Fprintf(&b, "- %s. %s\n", key, opt)
					}
				}
				fmt.Fprintf(&b, "\n答案：%s\n\n", q.Answer)
				if q.Explanation != "" {
					fmt.Fprintf(&b, "解析：%s\n\n", q.Explanation)
				}
			}
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

// OutlineMarkdown renders the classified structure as an indented tree,
// one line per slide with its content type tag.
func OutlineMarkdown(source string, slides []outline.SlideRecord, records []outline.StructureRecord) string {
	bySlide := make(map[int]outline.SlideRecord, len(slides))
	for _, s := range slides {
		bySlide[s.Index] = s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 结构大纲：%s\n\n", source)
	for _, rec := range records {
		title := ""
		if s, ok := bySlide[rec.SlideIndex]; ok {
			title = s.Title
		}
		if title == "" {
			title = "（无标题）"
		}
		depth := rec.Level - 1
		if depth < 0 {
			depth = 0
		}
		fmt.Fprintf(&b, "%s- [%s] 幻灯片 %d：%s\n",
			strings.Repeat("  ", depth), rec.Type, rec.SlideIndex, title)
	}
	return b.String()
}
