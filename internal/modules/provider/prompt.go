package provider

import "strings"

// languageLabels maps the configured summary language to the label
// interpolated into prompt templates.
var languageLabels = map[string]string{
	"korean":  "한국어",
	"english": "English",
	"auto":    "the source language",
}

// LanguageLabel resolves a configured language code to its prompt label,
// defaulting to Korean.
func LanguageLabel(code string) string {
	if label, ok := languageLabels[strings.ToLower(strings.TrimSpace(code))]; ok {
		return label
	}
	return languageLabels["korean"]
}

// BuildPrompt substitutes the request fields into the template. Both the
// abstract and full-text placeholders receive the request text so one
// builder serves both template families.
func BuildPrompt(req Request) string {
	return strings.NewReplacer(
		"{{title}}", req.Title,
		"{{abstract}}", req.Text,
		"{{fullText}}", req.Text,
		"{{url}}", req.URL,
		"{{language}}", LanguageLabel(req.Language),
	).Replace(req.Template)
}
