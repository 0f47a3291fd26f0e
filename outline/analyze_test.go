package outline

import (
	"reflect"
	"testing"
)

func analyzeDefault(t *testing.T, slides []SlideRecord) []StructureRecord {
	t.Helper()
	return NewAnalyzer(Config{}).Analyze(slides)
}

// ---------------------------------------------------------------------------
// Whole-deck scenarios
// ---------------------------------------------------------------------------

func TestAnalyzeCoverSlide(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "课程汇报：机器学习导论"},
	})
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	r := recs[0]
	if r.Type != MainTitle {
		t.Errorf("Type = %q, want %q", r.Type, MainTitle)
	}
	if r.Level != 1 {
		t.Errorf("Level = %d, want 1", r.Level)
	}
	if len(r.ParentPath) != 0 {
		t.Errorf("ParentPath = %v, want empty", r.ParentPath)
	}
	if !r.Flags.IsTitlePage {
		t.Error("IsTitlePage should be set")
	}
}

func TestAnalyzeTOCThenChapter(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "机器学习导论", Paragraphs: []string{"主讲：张三"}},
		{Index: 1, Title: "目录", Bullets: []string{"1. 引言", "2. 方法"}},
		{Index: 2, Title: "引言", Bullets: []string{"研究背景与现状", "本文主要贡献"}},
	})
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Type != MainTitle {
		t.Errorf("record 0 Type = %q, want %q", recs[0].Type, MainTitle)
	}
	if recs[1].Type != TOC {
		t.Errorf("record 1 Type = %q, want %q", recs[1].Type, TOC)
	}
	if recs[1].Level != 1 {
		t.Errorf("record 1 Level = %d, want 1", recs[1].Level)
	}
	if !recs[1].Flags.IsTOC {
		t.Error("record 1 IsTOC should be set")
	}
	// A plain-text slide after the contents page is body material, never TOC.
	if recs[2].Type != Body {
		t.Errorf("record 2 Type = %q, want %q", recs[2].Type, Body)
	}
}

func TestAnalyzeTOCRunMerging(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "数据挖掘课程"},
		{Index: 1, Title: "目录", Bullets: []string{"第一部分", "第二部分"}},
		{Index: 2, Title: "目录（续）"},
		{Index: 3, Title: "第一部分 数据准备"},
		{Index: 4, Title: "谢谢"},
	})
	if recs[1].Type != TOC || recs[2].Type != TOC {
		t.Fatalf("records 1,2 = %q,%q, want both %q", recs[1].Type, recs[2].Type, TOC)
	}
	if recs[1].TOCRunStart != 1 {
		t.Errorf("record 1 TOCRunStart = %d, want 1", recs[1].TOCRunStart)
	}
	if recs[2].TOCRunStart != 1 {
		t.Errorf("record 2 TOCRunStart = %d, want 1 (same run)", recs[2].TOCRunStart)
	}
	if recs[3].Type != ChapterTitle {
		t.Errorf("record 3 Type = %q, want %q", recs[3].Type, ChapterTitle)
	}
	if recs[4].Type != Acknowledgement {
		t.Errorf("record 4 Type = %q, want %q", recs[4].Type, Acknowledgement)
	}
}

func TestAnalyzeBrokenTOCRunStartsFresh(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "课程简介"},
		{Index: 1, Title: "目录"},
		{Index: 2, Title: "正文页", Paragraphs: []string{"这里是正文的内容介绍，包含若干说明文字"}},
		{Index: 3, Title: "附录大纲"},
		{Index: 4, Title: "完"},
	})
	if recs[1].Type != TOC || recs[3].Type != TOC {
		t.Fatalf("records 1,3 = %q,%q, want both %q", recs[1].Type, recs[3].Type, TOC)
	}
	if recs[1].TOCRunStart != 1 {
		t.Errorf("record 1 TOCRunStart = %d, want 1", recs[1].TOCRunStart)
	}
	if recs[3].TOCRunStart != 3 {
		t.Errorf("record 3 TOCRunStart = %d, want 3 (new run after break)", recs[3].TOCRunStart)
	}
}

func TestAnalyzeAcknowledgementLastSlide(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "项目答辩"},
		{Index: 1, Title: "谢谢观看"},
	})
	r := recs[1]
	if r.Type != Acknowledgement {
		t.Errorf("Type = %q, want %q", r.Type, Acknowledgement)
	}
	if r.Level != 1 {
		t.Errorf("Level = %d, want 1", r.Level)
	}
	if !r.Flags.IsEndSection {
		t.Error("IsEndSection should be set")
	}
}

func TestAnalyzeEndingSubtypes(t *testing.T) {
	tests := []struct {
		name string
		last SlideRecord
		want ContentType
	}{
		{"thanks", SlideRecord{Index: 1, Title: "谢谢观看"}, Acknowledgement},
		{"thanks_en", SlideRecord{Index: 1, Title: "Thank You"}, Acknowledgement},
		{"references", SlideRecord{Index: 1, Title: "参考文献"}, References},
		{"bibliography", SlideRecord{Index: 1, Title: "Bibliography"}, References},
		{"qa", SlideRecord{Index: 1, Title: "Q&A"}, QA},
		{"qa_cn", SlideRecord{Index: 1, Title: "提问环节"}, QA},
		{"generic_end", SlideRecord{Index: 1, Title: "结束"}, EndPage},
		{"low_weight_fallback", SlideRecord{Index: 1, Title: "再会吧"}, EndPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := analyzeDefault(t, []SlideRecord{
				{Index: 0, Title: "某个课程汇报"},
				tt.last,
			})
			if recs[1].Type != tt.want {
				t.Errorf("Type = %q, want %q", recs[1].Type, tt.want)
			}
			if recs[1].Level != 1 {
				t.Errorf("Level = %d, want 1", recs[1].Level)
			}
		})
	}
}

func TestAnalyzeEmptySlide(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "汇报：某主题"},
		{Index: 1},
		{Index: 2, Title: "谢谢"},
	})
	r := recs[1]
	if r.Type != EmptyPage {
		t.Errorf("Type = %q, want %q", r.Type, EmptyPage)
	}
	if !r.Flags.IsEmpty {
		t.Error("IsEmpty should be set")
	}
}

func TestAnalyzeSectionTitle(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "机器学习实战分享"},
		{Index: 1, Title: "第一章 数据工程"},
		{Index: 2, Title: "1.1 数据预处理", Paragraphs: []string{"包括缺失值处理、特征缩放与归一化等常见步骤"}},
		{Index: 3, Title: "再见"},
	})
	r := recs[2]
	if r.Type != SectionTitle {
		t.Errorf("Type = %q, want %q", r.Type, SectionTitle)
	}
	if r.Level != 3 {
		t.Errorf("Level = %d, want 3", r.Level)
	}
}

func TestAnalyzeImagePage(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "系统架构讲座"},
		{Index: 1, Title: "第一章 总体设计"},
		{Index: 2, Title: "架构图", Images: []string{"slide_2_image_0"}},
		{Index: 3, Title: "谢谢"},
	})
	r := recs[2]
	if r.Type != ImagePage {
		t.Errorf("Type = %q, want %q", r.Type, ImagePage)
	}
	if !r.Flags.HasImages {
		t.Error("HasImages should be set")
	}
	if r.Level != len(r.ParentPath)+1 {
		t.Errorf("Level = %d, ParentPath = %v, want Level == len(path)+1", r.Level, r.ParentPath)
	}
	// A text-heavy slide keeps its images but is body, not an image page.
	recs = analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "系统架构讲座"},
		{Index: 1, Title: "架构详解", Paragraphs: []string{"该架构由接入层、服务层与存储层三部分组成，各层之间通过消息队列解耦"}, Images: []string{"slide_1_image_0"}},
		{Index: 2, Title: "谢谢"},
	})
	if recs[1].Type != Body {
		t.Errorf("text-heavy slide Type = %q, want %q", recs[1].Type, Body)
	}
	if !recs[1].Flags.HasImages {
		t.Error("text-heavy slide should still report HasImages")
	}
}

// ---------------------------------------------------------------------------
// Hierarchy path
// ---------------------------------------------------------------------------

func TestAnalyzeHierarchyPath(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "算法设计课程"},
		{Index: 1, Title: "第一章 分治法"},
		{Index: 2, Title: "正文", Paragraphs: []string{"分治法将问题拆分为规模更小的同类子问题，分别求解后合并结果"}},
		{Index: 3, Title: "第二章 动态规划"},
		{Index: 4, Title: "正文", Paragraphs: []string{"动态规划通过记录子问题的解避免重复计算，适合最优子结构问题"}},
		{Index: 5, Title: "谢谢"},
	})

	want := [][]string{
		nil, // cover classified before any path exists
		{"算法设计课程"},
		{"算法设计课程", "第一章 分治法"},
		{"算法设计课程", "第一章 分治法"},
		{"算法设计课程", "第二章 动态规划"},
		{"算法设计课程", "第二章 动态规划"},
	}
	for i, r := range recs {
		if !reflect.DeepEqual(r.ParentPath, want[i]) {
			t.Errorf("record %d ParentPath = %v, want %v", i, r.ParentPath, want[i])
		}
	}

	// Body slides inherit depth from the active branch.
	if recs[2].Level != 3 {
		t.Errorf("record 2 Level = %d, want 3", recs[2].Level)
	}
	if recs[4].Level != 3 {
		t.Errorf("record 4 Level = %d, want 3", recs[4].Level)
	}
}

func TestAnalyzePathSnapshotsAreIndependent(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "编译原理讲座"},
		{Index: 1, Title: "第一章 词法分析"},
		{Index: 2, Title: "正文", Paragraphs: []string{"词法分析器将字符流切分为记号流，供语法分析阶段使用"}},
		{Index: 3, Title: "第二章 语法分析"},
	})
	// The record captured under chapter one must not see chapter two.
	got := recs[2].ParentPath
	want := []string{"编译原理讲座", "第一章 词法分析"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("record 2 ParentPath = %v, want %v", got, want)
	}
}

func TestAnalyzeNoDuplicateConsecutivePathEntries(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "图像集锦展示"},
		{Index: 1, Title: "样例图", Images: []string{"slide_1_image_0"}},
		{Index: 2, Title: "样例图", Images: []string{"slide_2_image_0"}},
		{Index: 3, Title: "正文", Paragraphs: []string{"以上样例图展示了不同场景下的识别效果与失败案例"}},
	})
	if recs[1].Type != ImagePage || recs[2].Type != ImagePage {
		t.Fatalf("records 1,2 = %q,%q, want both %q", recs[1].Type, recs[2].Type, ImagePage)
	}
	path := recs[3].ParentPath
	for i := 1; i < len(path); i++ {
		if path[i] == path[i-1] {
			t.Errorf("duplicate consecutive path entry %q in %v", path[i], path)
		}
	}
}

// ---------------------------------------------------------------------------
// Global guarantees
// ---------------------------------------------------------------------------

func TestAnalyzeEmptyDeck(t *testing.T) {
	recs := analyzeDefault(t, nil)
	if recs == nil {
		t.Fatal("Analyze(nil) should return an empty slice, not nil")
	}
	if len(recs) != 0 {
		t.Errorf("got %d records, want 0", len(recs))
	}
}

func TestAnalyzeOneRecordPerSlide(t *testing.T) {
	decks := [][]SlideRecord{
		{},
		{{Index: 0}},
		{{Index: 0, Title: "只有一页"}},
		{
			{Index: 0, Title: "汇报：完整例子"},
			{Index: 1, Title: "目录"},
			{Index: 2},
			{Index: 3, Title: "第一章 概述"},
			{Index: 4, Title: "1.1 范围"},
			{Index: 5, Images: []string{"slide_5_image_0"}},
			{Index: 6, Title: "谢谢观看"},
		},
	}
	for _, slides := range decks {
		recs := analyzeDefault(t, slides)
		if len(recs) != len(slides) {
			t.Errorf("got %d records for %d slides", len(recs), len(slides))
		}
	}
}

func TestAnalyzeMainTitleOnlyAtIndexZero(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "绪论与背景", Paragraphs: []string{
			"本页包含大量正文内容用于说明研究背景现状以及相关工作的发展脉络和主要结论",
			"正文部分继续罗列了多个研究方向的代表性成果并对它们的优缺点逐一进行了比较",
			"最后本页还给出了后续各个部分的组织方式以及每一部分要解决的核心问题说明",
		}},
		{Index: 1, Title: "课程汇报：机器学习"},
		{Index: 2, Title: "谢谢"},
	})
	// The heavy first slide fails the cover rules, and nothing later may
	// take its place.
	for i, r := range recs {
		if r.Type == MainTitle {
			t.Errorf("record %d classified MainTitle, want none in this deck", i)
		}
	}
	if recs[0].Type != Body {
		t.Errorf("record 0 Type = %q, want %q", recs[0].Type, Body)
	}
	if recs[1].Type == MainTitle {
		t.Error("record 1 classified MainTitle away from index 0")
	}
}

func TestAnalyzeEndingOnlyAtLastIndex(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "结课汇报"},
		{Index: 1, Title: "谢谢大家", Paragraphs: []string{"下面进入答辩环节的具体说明"}},
		{Index: 2, Title: "评分标准", Paragraphs: []string{"成绩由内容深度、表达清晰度与现场表现三项构成"}},
	})
	for i, r := range recs[:len(recs)-1] {
		if r.Type.IsEnding() {
			t.Errorf("record %d is ending type %q before the last slide", i, r.Type)
		}
	}
}

func TestAnalyzeLevelMatchesPathForBodyAndImages(t *testing.T) {
	recs := analyzeDefault(t, []SlideRecord{
		{Index: 0, Title: "测试课程讲义"},
		{Index: 1, Title: "第一章 基础"},
		{Index: 2, Title: "正文", Paragraphs: []string{"本章介绍最基本的概念、术语与记号，为后续章节做准备"}},
		{Index: 3, Images: []string{"slide_3_image_0"}, Title: "示意"},
		{Index: 4, Title: "第二章 进阶"},
		{Index: 5, Title: "正文", Paragraphs: []string{"进阶内容建立在基础概念之上，讨论更复杂的组合情形"}},
		{Index: 6, Title: "谢谢"},
	})
	for i, r := range recs {
		if r.Type != Body && r.Type != ImagePage {
			continue
		}
		if r.Level != len(r.ParentPath)+1 {
			t.Errorf("record %d (%q): Level = %d, len(ParentPath) = %d", i, r.Type, r.Level, len(r.ParentPath))
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	slides := []SlideRecord{
		{Index: 0, Title: "可重复性检查"},
		{Index: 1, Title: "目录"},
		{Index: 2, Title: "第一章 方法"},
		{Index: 3, Title: "正文", Paragraphs: []string{"同一输入必须永远得到同一输出，分类不允许随机化"}},
		{Index: 4, Title: "谢谢"},
	}
	a := NewAnalyzer(Config{})
	first := a.Analyze(slides)
	second := a.Analyze(slides)
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same deck disagree")
	}
}

// ---------------------------------------------------------------------------
// Configuration overrides
// ---------------------------------------------------------------------------

func TestAnalyzeConfigOverrides(t *testing.T) {
	slides := []SlideRecord{
		{Index: 0, Title: "阈值覆盖检查"},
		{Index: 1, Title: "图示页", Paragraphs: []string{"这里是关于示意图的简要说明文字"}, Images: []string{"slide_1_image_0"}},
		{Index: 2, Title: "谢谢"},
	}

	def := NewAnalyzer(Config{}).Analyze(slides)
	if def[1].Type != Body {
		t.Fatalf("default Type = %q, want %q", def[1].Type, Body)
	}

	loose := NewAnalyzer(Config{ImageWeightMax: 30}).Analyze(slides)
	if loose[1].Type != ImagePage {
		t.Errorf("with raised image threshold Type = %q, want %q", loose[1].Type, ImagePage)
	}
}

func TestAnalyzeMainTitleWeightOverride(t *testing.T) {
	slides := []SlideRecord{
		{Index: 0, Title: "没有分隔符的首页标题", Paragraphs: []string{"一小段说明"}},
	}
	def := NewAnalyzer(Config{}).Analyze(slides)
	if def[0].Type != MainTitle {
		t.Fatalf("default Type = %q, want %q", def[0].Type, MainTitle)
	}

	strict := NewAnalyzer(Config{MainTitleWeightMax: 5}).Analyze(slides)
	if strict[0].Type == MainTitle {
		t.Errorf("with tightened weight gate the first slide should not be a cover, got %q", strict[0].Type)
	}
}

func TestDefaultConfigFillsZeroFields(t *testing.T) {
	a := NewAnalyzer(Config{ImageWeightMax: 25})
	cfg := a.Config()
	if cfg.ImageWeightMax != 25 {
		t.Errorf("ImageWeightMax = %d, want 25", cfg.ImageWeightMax)
	}
	def := DefaultConfig()
	if cfg.TitleMaxRunes != def.TitleMaxRunes {
		t.Errorf("TitleMaxRunes = %d, want default %d", cfg.TitleMaxRunes, def.TitleMaxRunes)
	}
	if cfg.HeadingWeightMax != def.HeadingWeightMax {
		t.Errorf("HeadingWeightMax = %d, want default %d", cfg.HeadingWeightMax, def.HeadingWeightMax)
	}
}
