package markdown

import (
	"github.com/gin-gonic/gin"

	"github.com/paperlens/core/internal/modules/keywords"
	"github.com/paperlens/core/internal/pkg/response"
)

// Handler exposes the markdown pipeline over HTTP: structured block
// translation, HTML preview, and keyword extraction.
type Handler struct {
	translator *Translator
}

func NewHandler(translator *Translator) *Handler {
	if translator == nil {
		translator = NewTranslator(Options{})
	}
	return &Handler{translator: translator}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, _ gin.HandlerFunc) {
	g := rg.Group("/markdown")
	g.POST("/blocks", h.blocks)
	g.POST("/render", h.render)
	g.POST("/keywords", h.keywords)
}

type textDTO struct {
	Text string `json:"text"`
}

// POST /markdown/blocks — translate markdown into structured blocks.
func (h *Handler) blocks(c *gin.Context) {
	var dto textDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	blocks := h.translator.Translate(dto.Text)
	response.OK(c, gin.H{
		"blocks": blocks,
		"count":  len(blocks),
	})
}

// POST /markdown/render — render markdown to an HTML preview.
func (h *Handler) render(c *gin.Context) {
	var dto textDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	response.OK(c, gin.H{"html": RenderHTML(dto.Text)})
}

// POST /markdown/keywords — extract keywords from a summary.
func (h *Handler) keywords(c *gin.Context) {
	var dto textDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	response.OK(c, gin.H{"keywords": keywords.Extract(dto.Text)})
}
