package outline

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		// Pass-through
		{"plain_ascii", "Hello World", "Hello World"},
		{"chinese", "机器学习导论", "机器学习导论"},
		{"mixed_cjk_ascii", "第1章 机器学习", "第1章 机器学习"},
		{"fullwidth_colon", "课程汇报：机器学习导论", "课程汇报：机器学习导论"},
		{"bullet_glyph", "• 第一点", "• 第一点"},
		{"circled_numeral", "① 概述", "① 概述"},
		{"cjk_punctuation", "《机器学习》、（导论）", "《机器学习》、（导论）"},
		{"japanese_kana", "こんにちはカタカナ", "こんにちはカタカナ"},
		{"korean_hangul", "안녕하세요", "안녕하세요"},

		// Replacement
		{"control_chars", "abc\x00\x01def", "abc def"},
		{"emoji", "hello 🙂 world", "hello world"},
		{"zero_width_space", "机器​学习", "机器 学习"},

		// Whitespace normalization
		{"collapse_spaces", "  a \t\t b\n\nc  ", "a b c"},
		{"ideographic_space", "机器　学习", "机器 学习"},
		{"trim_only", "  导论  ", "导论"},

		// Degenerate
		{"empty", "", ""},
		{"only_disallowed", "\x00\x01\x02", ""},
		{"only_whitespace", " \t\n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"课程汇报：机器学习导论",
		"abc\x00def\x01ghi",
		"  第1章 \t 绪论  ",
		"• 要点一\n• 要点二",
		"mixed 中文 and English with 🙂 emoji",
		strings.Repeat("长文本", 100),
		"",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not stable for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestSanitizeOutputStaysInAllowList(t *testing.T) {
	inputs := []string{
		"abc\x00\x7fdef",
		"emoji 🙂🎉 and symbols ∀∃∈",
		"中文，标点。与控制\x08符",
		"﻿BOM prefixed",
	}
	for _, in := range inputs {
		out := Sanitize(in)
		for _, r := range out {
			if !allowedRune(r) {
				t.Errorf("Sanitize(%q) leaked disallowed rune %U in %q", in, r, out)
			}
		}
	}
}
