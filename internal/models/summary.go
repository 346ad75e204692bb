package models

// Variant names which depth of analysis a summary represents.
type Variant string

const (
	VariantAbstract Variant = "abstract"
	VariantFull     Variant = "full"
)

// SummaryModel stores one generated summary per (paper, variant).
type SummaryModel struct {
	Base
	PaperID      string  `json:"paper_id"      gorm:"index:idx_paper_variant;not null"`
	Variant      Variant `json:"variant"       gorm:"index:idx_paper_variant;not null"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Markdown     string  `json:"markdown"      gorm:"type:longtext;not null"`
	Provider     string  `json:"provider"      gorm:"index"`
	ModelID      string  `json:"model_id"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Size         int     `json:"size"` // serialized export-record bytes, used for eviction
}

func (SummaryModel) TableName() string { return "summaries" }
