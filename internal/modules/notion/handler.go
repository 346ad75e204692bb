package notion

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paperlens/core/internal/pkg/response"
)

// Handler exposes the document sync endpoints.
type Handler struct {
	rec *Reconciler
}

func NewHandler(rec *Reconciler) *Handler {
	return &Handler{rec: rec}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/notion", authMW)
	g.GET("/test", h.test)
	g.GET("/mapping", h.mapping)
	g.POST("/sync/abstract", h.syncAbstract)
	g.POST("/sync/full", h.syncFull)
}

// GET /notion/test — verify the workspace token.
func (h *Handler) test(c *gin.Context) {
	name, err := h.rec.TestConnection(c.Request.Context())
	if err != nil {
		response.BadGateway(c, err.Error())
		return
	}
	response.OK(c, gin.H{"connected": true, "workspace_user": name})
}

// GET /notion/mapping?paper_id=... — inspect the stored remote links.
func (h *Handler) mapping(c *gin.Context) {
	paperID := c.Query("paper_id")
	if paperID == "" {
		response.BadRequest(c, "paper_id is required")
		return
	}
	m, err := h.rec.Mapping(c.Request.Context(), paperID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, m)
}

type syncDTO struct {
	PaperID    string `json:"paper_id" binding:"required"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Markdown   string `json:"markdown" binding:"required"`
	ProviderID string `json:"provider_id"`
	ModelID    string `json:"model_id"`
}

func (d syncDTO) toSummary() Summary {
	return Summary{
		PaperID:    d.PaperID,
		Title:      d.Title,
		URL:        d.URL,
		Markdown:   d.Markdown,
		ProviderID: d.ProviderID,
		ModelID:    d.ModelID,
		CreatedAt:  time.Now(),
	}
}

// POST /notion/sync/abstract — push the abstract summary as a new
// database entry.
func (h *Handler) syncAbstract(c *gin.Context) {
	var dto syncDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	pageID, err := h.rec.SyncAbstract(c.Request.Context(), dto.toSummary())
	if err != nil {
		response.BadGateway(c, err.Error())
		return
	}
	response.OK(c, gin.H{"page_id": pageID})
}

// POST /notion/sync/full — attach the full analysis under the abstract
// anchor, synthesizing the anchor when needed.
func (h *Handler) syncFull(c *gin.Context) {
	var dto syncDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	childID, err := h.rec.SyncFull(c.Request.Context(), dto.toSummary())
	if err != nil {
		response.BadGateway(c, err.Error())
		return
	}
	response.OK(c, gin.H{"page_id": childID})
}
