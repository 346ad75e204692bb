// Package summarize orchestrates summary generation: provider
// selection, prompt assembly, streaming, persistence, and the
// background task path.
package summarize

import (
	"github.com/paperlens/core/internal/models"
	"github.com/paperlens/core/internal/modules/provider"
)

// GenerateRequest is the material for one summary generation.
type GenerateRequest struct {
	PaperID    string `json:"paper_id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Text       string `json:"text"` // abstract or full paper body, per variant
	Variant    string `json:"variant"`
	ProviderID string `json:"provider_id"`
	Language   string `json:"language"`
}

// GenerateResult is the terminal output of one generation.
type GenerateResult struct {
	PaperID    string          `json:"paper_id"`
	Variant    models.Variant  `json:"variant"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Markdown   string          `json:"markdown"`
	ProviderID string          `json:"provider_id"`
	ModelID    string          `json:"model_id,omitempty"`
	Usage      *provider.Usage `json:"usage,omitempty"`
	Cost       *Cost           `json:"cost,omitempty"`
}
