package assist

import (
	"fmt"

	"github.com/cbroglie/mustache"
)

const fence = "```"

// Triple braces keep user code unescaped.
var analyzeErrorTemplate = `You are an expert code debugger. Analyze this error and provide a solution.

Language: {{{language}}}
Error: {{{errorMessage}}}

Code:
` + fence + `{{{language}}}
{{{codeSnippet}}}
` + fence + `

Please provide:
1. Root cause of the error
2. Suggested fix
3. Best practices to avoid similar errors

Format your response as JSON with keys: cause, fix, bestPractices`

var suggestCodeTemplate = `Generate {{{language}}} code for: {{{description}}}. Provide clean, well-commented code.`

var reviewCodeTemplate = `You are an expert programming mentor helping a student debug their code.
{{#mentorCode}}
MENTOR'S REFERENCE CODE (Expected Implementation):
` + fence + `
{{{mentorCode}}}
` + fence + `
{{/mentorCode}}

STUDENT'S CODE:
` + fence + `
{{{studentCode}}}
` + fence + `

Please analyze the student's code and provide:
1. Identify any syntax errors or bugs
2. {{#mentorCode}}Compare with the mentor's approach{{/mentorCode}}{{^mentorCode}}Review code structure and logic{{/mentorCode}}
3. Suggest improvements and best practices
4. Provide encouragement and learning tips

Keep the response concise (under 200 words), friendly, and educational.`

func renderPrompt(template string, data map[string]any) (string, error) {
	prompt, err := mustache.Render(template, data)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return prompt, nil
}

func buildAnalyzePrompt(req AnalyzeRequest) (string, error) {
	return renderPrompt(analyzeErrorTemplate, map[string]any{
		"language":     req.Language,
		"errorMessage": req.ErrorMessage,
		"codeSnippet":  req.CodeSnippet,
	})
}

func buildSuggestPrompt(description, language string) (string, error) {
	return renderPrompt(suggestCodeTemplate, map[string]any{
		"language":    language,
		"description": description,
	})
}

func buildReviewPrompt(req ReviewRequest) (string, error) {
	return renderPrompt(reviewCodeTemplate, map[string]any{
		"studentCode": req.StudentCode,
		"mentorCode":  req.MentorCode,
	})
}
