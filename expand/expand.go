// Package expand generates study material for slides using an LLM:
// detailed explanations, code examples for technical topics, reference
// recommendations, and quiz questions.
package expand

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go/v4"

	"github.com/qixuan-zhu/deckagent/llm"
)

// Config holds expansion agent configuration.
type Config struct {
	Model       string  `json:"model" yaml:"model"`
	Concurrency int     `json:"concurrency" yaml:"concurrency"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	MaxAttempts uint    `json:"max_attempts" yaml:"max_attempts"`
}

// DefaultConfig returns the default expansion settings.
func DefaultConfig() Config {
	return Config{
		Concurrency: 2,
		Temperature: 0.7,
		MaxTokens:   1000,
		MaxAttempts: 3,
	}
}

// Slide is the content of one slide to expand.
type Slide struct {
	Index      int
	Title      string
	Paragraphs []string
	Bullets    []string
}

// Explanation is one parsed explanation section.
type Explanation struct {
	Concept     string `json:"concept"`
	Explanation string `json:"explanation"`
}

// CodeExample is a generated code sample with commentary.
type CodeExample struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Reference is a recommended learning resource.
type Reference struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Quiz is a parsed multiple-choice question.
type Quiz struct {
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"`
	Answer      string            `json:"answer"`
	Explanation string            `json:"explanation"`
}

// Result holds all expansion output for one slide.
type Result struct {
	SlideIndex       int           `json:"slide_index"`
	Title            string        `json:"title"`
	Skipped          bool          `json:"skipped,omitempty"`
	SkipReason       string        `json:"skip_reason,omitempty"`
	Explanations     []Explanation `json:"explanations"`
	CodeExamples     []CodeExample `json:"code_examples"`
	References       []Reference   `json:"references"`
	Quiz             []Quiz        `json:"quiz_questions"`
	ModelUsed        string        `json:"model_used,omitempty"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TotalTokens      int           `json:"total_tokens"`
}

// technicalKeywords gate code example generation: only slides whose text
// mentions a programming topic get one.
var technicalKeywords = []string{
	"代码", "编程", "算法", "函数", "类", "对象", "数据库", "网络", "协议",
	"code", "programming", "algorithm", "function", "class", "object",
	"database", "network", "protocol",
}

// Agent expands slides by running up to four generation tasks per slide.
type Agent struct {
	chat llm.Provider
	cfg  Config
	sem  chan struct{}
}

// New creates an expansion agent. The semaphore bounds concurrent LLM
// calls across all slides.
func New(chat llm.Provider, cfg Config) *Agent {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 2
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	return &Agent{
		chat: chat,
		cfg:  cfg,
		sem:  make(chan struct{}, cfg.Concurrency),
	}
}

// ExpandSlides expands all given slides concurrently. Results come back
// in slide order. The only error returned is context cancellation; task
// failures degrade to empty sections within each result.
func (a *Agent) ExpandSlides(ctx context.Context, slides []Slide) ([]Result, error) {
	results := make([]Result, len(slides))
	var wg sync.WaitGroup
	for i, slide := range slides {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = *a.ExpandSlide(ctx, slide)
		}()
	}
	wg.Wait()
	return results, ctx.Err()
}

// ExpandSlide runs the four generation tasks for one slide in parallel.
// A slide with no title, paragraphs, or bullets is skipped with a
// recorded reason rather than sent to the model.
func (a *Agent) ExpandSlide(ctx context.Context, slide Slide) *Result {
	res := &Result{SlideIndex: slide.Index, Title: slide.Title}

	if strings.TrimSpace(slide.Title) == "" && len(slide.Paragraphs) == 0 && len(slide.Bullets) == 0 {
		slog.Info("expand: skipping empty slide", "slide", slide.Index)
		res.Skipped = true
		res.SkipReason = "内容为空"
		return res
	}

	slog.Info("expand: expanding slide", "slide", slide.Index, "title", slide.Title)
	start := time.Now()

	var wg sync.WaitGroup
	var (
		explanations []Explanation
		examples     []CodeExample
		refs         []Reference
		quiz         []Quiz

		expUsage, exUsage, refUsage, quizUsage usage
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		explanations, expUsage = a.generateExplanations(ctx, slide)
	}()
	go func() {
		defer wg.Done()
		examples, exUsage = a.generateCodeExamples(ctx, slide)
	}()
	go func() {
		defer wg.Done()
		refs, refUsage = a.generateReferences(ctx, slide)
	}()
	go func() {
		defer wg.Done()
		quiz, quizUsage = a.generateQuiz(ctx, slide)
	}()
	wg.Wait()

	res.Explanations = explanations
	res.CodeExamples = examples
	res.References = refs
	res.Quiz = quiz
	for _, u := range []usage{expUsage, exUsage, refUsage, quizUsage} {
		res.PromptTokens += u.prompt
		res.CompletionTokens += u.completion
		res.TotalTokens += u.total
		if u.model != "" {
			res.ModelUsed = u.model
		}
	}

	slog.Info("expand: slide complete",
		"slide", slide.Index,
		"explanations", len(explanations), "examples", len(examples),
		"references", len(refs), "quiz", len(quiz),
		"tokens", res.TotalTokens,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res
}

type usage struct {
	model                     string
	prompt, completion, total int
}

// callLLM acquires the concurrency semaphore and sends one chat request,
// retrying transient failures and blank responses.
func (a *Agent) callLLM(ctx context.Context, system, user string) (string, usage, error) {
	select {
	case a.sem <- struct{}{}:
	case <-ctx.Done():
		return "", usage{}, ctx.Err()
	}
	defer func() { <-a.sem }()

	var resp *llm.ChatResponse
	err := retry.Do(
		func() error {
			r, err := a.chat.Chat(ctx, llm.ChatRequest{
				Model: a.cfg.Model,
				Messages: []llm.Message{
					{Role: "system", Content: system},
					{Role: "user", Content: user},
				},
				Temperature: a.cfg.Temperature,
				MaxTokens:   a.cfg.MaxTokens,
			})
			if err != nil {
				return err
			}
			if strings.TrimSpace(r.Content) == "" {
				return fmt.Errorf("empty response from model")
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(a.cfg.MaxAttempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", usage{}, err
	}
	return resp.Content, usage{
		model:      resp.Model,
		prompt:     resp.PromptTokens,
		completion: resp.CompletionTokens,
		total:      resp.TotalTokens,
	}, nil
}

func (a *Agent) generateExplanations(ctx context.Context, slide Slide) ([]Explanation, usage) {
	text, u, err := a.callLLM(ctx, explanationSystem, buildExplanationPrompt(slide))
	if err != nil {
		slog.Error("expand: explanation generation failed", "slide", slide.Index, "error", err)
		return nil, u
	}
	return parseExplanations(text), u
}

func (a *Agent) generateCodeExamples(ctx context.Context, slide Slide) ([]CodeExample, usage) {
	if !isTechnical(slide) {
		return nil, usage{}
	}
	text, u, err := a.callLLM(ctx, codeExampleSystem, buildCodeExamplePrompt(slide))
	if err != nil {
		slog.Error("expand: code example generation failed", "slide", slide.Index, "error", err)
		return nil, u
	}
	return []CodeExample{{
		Language:    "python",
		Code:        text,
		Description: "基于幻灯片内容生成的代码示例",
	}}, u
}

func (a *Agent) generateReferences(ctx context.Context, slide Slide) ([]Reference, usage) {
	text, u, err := a.callLLM(ctx, referencesSystem, buildReferencesPrompt(slide))
	if err != nil {
		slog.Error("expand: reference generation failed", "slide", slide.Index, "error", err)
		return nil, u
	}
	return parseReferences(text), u
}

func (a *Agent) generateQuiz(ctx context.Context, slide Slide) ([]Quiz, usage) {
	text, u, err := a.callLLM(ctx, quizSystem, buildQuizPrompt(slide))
	if err != nil {
		slog.Error("expand: quiz generation failed", "slide", slide.Index, "error", err)
		return nil, u
	}
	return parseQuiz(text), u
}

// isTechnical reports whether the slide text mentions a programming
// topic. Matching is substring-based over the combined slide text.
func isTechnical(slide Slide) bool {
	text := strings.ToLower(slide.Title + " " +
		strings.Join(slide.Paragraphs, " ") + " " +
		strings.Join(slide.Bullets, " "))
	for _, kw := range technicalKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// parseExplanations splits the model response on blank lines into
// explanation sections.
func parseExplanations(text string) []Explanation {
	var out []Explanation
	for _, section := range strings.Split(text, "\n\n") {
		section = strings.TrimSpace(section)
		if section != "" {
			out = append(out, Explanation{Concept: "核心概念", Explanation: section})
		}
	}
	return out
}

// parseReferences extracts up to five resources from the model response.
// Lines shaped like "名称：描述" split into title and description; bare
// lines become a title with a generic description.
func parseReferences(text string) []Reference {
	var refs []Reference
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "请推荐") || strings.HasPrefix(line, "对于每个") {
			continue
		}
		if i := strings.Index(line, "："); i >= 0 {
			refs = append(refs, Reference{
				Title:       strings.TrimSpace(line[:i]),
				Description: strings.TrimSpace(line[i+len("："):]),
			})
		} else if i := strings.Index(line, ":"); i >= 0 {
			refs = append(refs, Reference{
				Title:       strings.TrimSpace(line[:i]),
				Description: strings.TrimSpace(line[i+1:]),
			})
		} else {
			refs = append(refs, Reference{Title: line, Description: "学习资源"})
		}
	}
	if len(refs) > 5 {
		refs = refs[:5]
	}
	return refs
}

// parseQuiz extracts one multiple-choice question from the line format
// the quiz prompt requests (问题：/A./B./C./D./答案：/解析：).
func parseQuiz(text string) []Quiz {
	q := Quiz{Options: make(map[string]string)}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "问题："):
			q.Question = strings.TrimSpace(strings.TrimPrefix(line, "问题："))
		case strings.HasPrefix(line, "A."):
			q.Options["A"] = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "B."):
			q.Options["B"] = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "C."):
			q.Options["C"] = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "D."):
			q.Options["D"] = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "答案："):
			q.Answer = strings.TrimSpace(strings.TrimPrefix(line, "答案："))
		case strings.HasPrefix(line, "解析："):
			q.Explanation = strings.TrimSpace(strings.TrimPrefix(line, "解析："))
		}
	}
	if q.Question == "" {
		return nil
	}
	return []Quiz{q}
}

// extractKeywords collects up to five keywords for the references
// prompt: title words first, then leading words of each paragraph.
func extractKeywords(slide Slide) []string {
	seen := make(map[string]bool)
	var keywords []string
	add := func(w string) {
		if !seen[w] {
			seen[w] = true
			keywords = append(keywords, w)
		}
	}

	for _, w := range strings.Fields(slide.Title) {
		if utf8.RuneCountInString(w) > 1 {
			add(w)
		}
	}
	for _, content := range slide.Paragraphs {
		words := strings.Fields(content)
		if len(words) > 10 {
			words = words[:10]
		}
		for _, w := range words {
			if utf8.RuneCountInString(w) > 2 {
				add(w)
			}
		}
	}

	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	return keywords
}
