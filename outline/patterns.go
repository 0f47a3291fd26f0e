package outline

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Numbering patterns
// ---------------------------------------------------------------------------

// chapterNumberPatterns match the heading formats that mark a top-level
// chapter slide. The bare-numeral form is deliberately aggressive and will
// also catch slide-number artifacts.
var chapterNumberPatterns = []*regexp.Regexp{
	// "1、引言"
	regexp.MustCompile(`^\d+、`),
	// "1. 引言", "2.方法" but not "1.1 ..."
	regexp.MustCompile(`^\d+\.\s*[^\d\s]`),
	// "第一章", "第3讲", "第2部分", "第四篇", "第1课", "第五单元"
	regexp.MustCompile(`^第\s*[一二三四五六七八九十百千\d]+\s*[章讲部篇课单]`),
	// "Chapter 1", "Part 2", "Unit 3"
	regexp.MustCompile(`(?i)^(?:chapter|part|unit|lecture|lesson)\s*\d+`),
	// "2 方法"
	regexp.MustCompile(`^\d+\s+\S`),
	// bare numeral
	regexp.MustCompile(`^\d+$`),
}

// sectionNumberPatterns match second-level heading formats.
var sectionNumberPatterns = []*regexp.Regexp{
	// "1.1", "2.3 数据预处理"
	regexp.MustCompile(`^\d+\.\d+`),
	// "a. 方案", "B、备选", "c) 其他"
	regexp.MustCompile(`^[a-zA-Z][.、)]\s*\S`),
	// circled or parenthesized numerals: ①, ⑴, ⒈
	regexp.MustCompile(`^[①-⑳⑴-⒇⒈-⒛]`),
	// "（一）", "(2) 说明"
	regexp.MustCompile(`^[（(]\s*[一二三四五六七八九十\d]+\s*[)）]`),
	// "Section 2", "Topic 3"
	regexp.MustCompile(`(?i)^(?:section|topic)\s*\d+`),
}

// MatchesChapterNumbering reports whether a title carries chapter-style
// numbering.
func MatchesChapterNumbering(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	for _, re := range chapterNumberPatterns {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// MatchesSectionNumbering reports whether a title carries section-style
// numbering.
func MatchesSectionNumbering(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	for _, re := range sectionNumberPatterns {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Keyword vocabularies
// ---------------------------------------------------------------------------

// titleSeparators mark a title/subtitle split on a cover slide.
const titleSeparators = ":：-–—―－"

var tocKeywords = []string{
	"目录", "大纲", "提纲", "议程", "纲要", "内容提要",
	"contents", "agenda", "outline", "catalog",
}

var titleIndicatorKeywords = []string{
	"汇报", "报告", "讲座", "答辩", "演讲", "分享", "课程", "培训",
	"presentation", "lecture", "seminar", "report", "defense", "course",
}

var chapterKeywords = []string{
	"章", "讲", "部分", "篇", "单元",
	"chapter", "part", "unit", "lesson", "module",
}

var sectionKeywords = []string{
	"节", "小节",
	"section", "subsection", "topic",
}

var ackKeywords = []string{
	"谢谢", "感谢", "致谢", "鸣谢",
	"thank", "acknowledg",
}

var refKeywords = []string{
	"参考文献", "参考资料", "引用文献",
	"references", "bibliography", "reference",
}

var qaKeywords = []string{
	"问答", "提问", "答疑", "互动",
	"q&a", "q & a", "questions",
}

var endKeywords = []string{
	"结束", "再见", "完毕", "欢迎交流", "欢迎指正", "总结",
	"the end", "goodbye", "conclusion",
}

var summaryKeywords = []string{
	"总结", "小结", "回顾", "归纳", "展望",
	"summary", "conclusion", "recap", "takeaway",
}

func containsKeyword(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ContainsTOCKeyword reports whether text mentions a table of contents.
// Matching is a case-insensitive literal scan over a bilingual list.
func ContainsTOCKeyword(text string) bool {
	return containsKeyword(text, tocKeywords)
}

// IsSummary reports whether text reads like a summary or wrap-up slide.
func IsSummary(text string) bool {
	return containsKeyword(text, summaryKeywords)
}

// ---------------------------------------------------------------------------
// Text weight
// ---------------------------------------------------------------------------

// TextWeight counts the characters that carry content: CJK ideographs,
// Latin letters and digits. Punctuation and whitespace count for nothing.
func TextWeight(text string) int {
	n := 0
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			n++
		case unicode.Is(unicode.Han, r):
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Naive heading level
// ---------------------------------------------------------------------------

// naiveLevelKeywords map title vocabulary to a coarse 1-3 level; titles
// matching nothing default to 4. The structural analyzer supersedes this.
var naiveLevelKeywords = []struct {
	level int
	words []string
}{
	{1, []string{"章", "部分", "单元", "篇", "chapter", "part", "unit"}},
	{2, []string{"小节", "节", "section", "subsection"}},
	{3, []string{"标题", "title", "heading"}},
}

func naiveTitleLevel(title string) int {
	if title == "" {
		return 4
	}
	lower := strings.ToLower(title)
	for _, group := range naiveLevelKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return group.level
			}
		}
	}
	return 4
}

// ---------------------------------------------------------------------------
// Code hints
// ---------------------------------------------------------------------------

// codeHintPatterns catch code-like syntax inside slide text.
var codeHintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:func|def|class|import|return|public|private|void|var|const)\b`),
	regexp.MustCompile(`[{};]\s*$`),
	regexp.MustCompile(`\w+\s*\([^)]*\)\s*[{;:]`),
}

// statementPattern matches assignment-shaped lines; three or more of them
// on one slide count as code even without a keyword hit.
var statementPattern = regexp.MustCompile(`^\s*\w[\w.\[\]]*\s*(?:=|\+=|-=)\s*\S`)

func hasCodeHints(slide SlideRecord) bool {
	statements := 0
	scan := func(text string) bool {
		for _, re := range codeHintPatterns {
			if re.MatchString(text) {
				return true
			}
		}
		if statementPattern.MatchString(text) {
			statements++
		}
		return false
	}
	for _, p := range slide.Paragraphs {
		if scan(p) {
			return true
		}
	}
	for _, b := range slide.Bullets {
		if scan(b) {
			return true
		}
	}
	return statements >= 3
}

// ---------------------------------------------------------------------------
// Bullet markers
// ---------------------------------------------------------------------------

// bulletGlyphs are the glyphs that mark a text block as a list item when
// they appear first. ASCII -, * and + cover markdown-style lists.
const bulletGlyphs = "•◦▪‣⁃∙·●○■□◆◇▶➢➤–—―※-*+"

// bulletMarkerPattern matches ordered-list markers: "1.", "2、", "a)",
// "一、", circled numerals.
var bulletMarkerPattern = regexp.MustCompile(
	`^(?:\d+[.、)]|[a-zA-Z][.、)]|[一二三四五六七八九十]+[、.]|[①-⑳⑴-⒇⒈-⒛])`,
)

// isBulletText decides bullet-ness from the sanitized text plus the raw
// text's leading indentation, which sanitizing trims away.
func isBulletText(raw, clean string) bool {
	r, _ := utf8.DecodeRuneInString(clean)
	if strings.ContainsRune(bulletGlyphs, r) {
		return true
	}
	if bulletMarkerPattern.MatchString(clean) {
		return true
	}
	return len(raw) > 0 && (raw[0] == ' ' || raw[0] == '\t')
}
