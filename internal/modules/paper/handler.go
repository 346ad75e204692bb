package paper

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/paperlens/core/internal/pkg/response"
)

// Handler exposes paper identity resolution and full-text retrieval.
type Handler struct {
	fetcher *FullTextFetcher
}

func NewHandler(fetcher *FullTextFetcher) *Handler {
	if fetcher == nil {
		fetcher = NewFullTextFetcher(0)
	}
	return &Handler{fetcher: fetcher}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, _ gin.HandlerFunc) {
	g := rg.Group("/papers")
	g.GET("/resolve", h.resolve)
	g.POST("/fulltext", h.fulltext)
}

// GET /papers/resolve?url=... — derive the canonical paper id.
func (h *Handler) resolve(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		response.BadRequest(c, "url is required")
		return
	}
	response.OK(c, gin.H{
		"paper_id": NormalizeID(rawURL),
		"arxiv_id": ArxivID(rawURL),
	})
}

type fulltextDTO struct {
	URL string `json:"url" binding:"required"`
}

// POST /papers/fulltext — fetch and extract the rendered paper body.
func (h *Handler) fulltext(c *gin.Context) {
	var dto fulltextDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	text, err := h.fetcher.Fetch(c.Request.Context(), dto.URL)
	if err != nil {
		if errors.Is(err, ErrNoHTMLVersion) {
			response.NotFoundMsg(c, "paper has no html version")
			return
		}
		response.BadGateway(c, err.Error())
		return
	}
	response.OK(c, gin.H{
		"paper_id": NormalizeID(dto.URL),
		"text":     text,
		"chars":    len([]rune(text)),
	})
}
