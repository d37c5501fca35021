package usecase

import (
	"strings"
	"unicode/utf8"
)

const maxPromptSnippet = 4000

// Category set the classifier must choose from.
var documentCategories = []string{
	"Invoice",
	"Contract",
	"Identity Document",
	"Receipt",
	"Letter",
	"Official Form",
}

func buildClassificationPrompt(text string) string {
	return `You are a document classifier.
Classify the document into exactly one of these categories:
` + strings.Join(documentCategories, ", ") + `.
Respond only with a JSON object containing keys:
"label" (string, one of the categories), "confidence" (number from 0 to 1), "tags" (array of strings).
No markdown, no extra keys.

Document:
` + promptSnippet(text)
}

func buildSummaryPrompt(text string) string {
	return `You are a concise summarization assistant.
Summarize the document in one short paragraph of at most 150 words and provide 3 short key points.
Respond only with a JSON object containing keys:
"summary" (string), "keyPoints" (array of exactly 3 short strings).
No markdown, no extra keys.

Document:
` + promptSnippet(text)
}

// promptSnippet caps the document text, cutting on a rune boundary so the
// model never sees a torn multi-byte sequence.
func promptSnippet(text string) string {
	if len(text) <= maxPromptSnippet {
		return text
	}
	cut := maxPromptSnippet
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
