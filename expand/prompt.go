package expand

import (
	"fmt"
	"strings"
)

const explanationSystem = `你是一位经验丰富的教师，擅长用简单易懂的方式解释复杂概念。
请根据幻灯片内容，提供详细的解释说明。`

func buildExplanationPrompt(slide Slide) string {
	content := strings.Join(slide.Paragraphs, "\n")
	bullets := "无"
	if len(slide.Bullets) > 0 {
		bullets = strings.Join(slide.Bullets, "\n")
	}
	return fmt.Sprintf(`幻灯片内容：

标题：%s

主要内容：
%s

项目符号：
%s

请为这个幻灯片生成详细的解释，包括：
1. 核心概念的定义和说明
2. 基本原理和逻辑
3. 实际应用场景
4. 与其他知识的关联

请使用中文回复，确保解释清晰准确。`, slide.Title, content, bullets)
}

const codeExampleSystem = `你是一位资深程序员和教育专家，擅长用示例解释技术概念。`

func buildCodeExamplePrompt(slide Slide) string {
	return fmt.Sprintf(`根据以下幻灯片内容，生成相关的代码示例：

主题：%s
内容：%s

请提供：
1. 一个完整的、可运行的代码示例
2. 详细的注释说明
3. 运行结果的说明
4. 实际应用场景

使用Python语言，确保代码规范和最佳实践。`, slide.Title, strings.Join(slide.Paragraphs, "\n"))
}

const referencesSystem = `你是一位学术研究助手，擅长查找权威的学习资源。`

func buildReferencesPrompt(slide Slide) string {
	keywords := strings.Join(extractKeywords(slide), ", ")
	return fmt.Sprintf(`为以下学习主题推荐相关资源：

主题：%s
关键词：%s

请推荐：
1. Wikipedia相关条目（中文或英文）
2. 相关书籍或教材
3. 在线教程或课程
4. 学术论文或研究报告

对于每个资源，请提供：
- 资源名称
- 简要描述
- 相关程度（高/中/低）`, slide.Title, keywords)
}

const quizSystem = `你是一位考试命题专家，擅长设计测试学生理解程度的问题。`

func buildQuizPrompt(slide Slide) string {
	return fmt.Sprintf(`根据以下学习内容，设计一个选择题：

内容主题：%s
详细内容：%s

请设计：
1. 一个清晰明确的问题题干
2. 4个选项（A、B、C、D）
3. 正确答案（标注清楚）
4. 详细的答案解析

格式要求：
问题：[问题题干]
A. [选项A]
B. [选项B]
C. [选项C]
D. [选项D]
答案：[正确选项，如A]
解析：[详细解析]`, slide.Title, strings.Join(slide.Paragraphs, "\n"))
}
