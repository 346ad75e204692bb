package history

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/paperlens/core/internal/pkg/response"
)

// Handler exposes the summary history plus the export/import
// interchange endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/history", authMW)
	g.GET("", h.list)
	g.GET("/entry", h.get)
	g.DELETE("/entry", h.delete)
	g.DELETE("", h.clear)
	g.GET("/export", h.export)
	g.POST("/import", h.importFile)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if items == nil {
		items = []Entry{}
	}
	response.OK(c, items)
}

func entryKey(c *gin.Context) (paperID, variant string, ok bool) {
	paperID = c.Query("paper_id")
	variant = c.Query("variant")
	if paperID == "" || variant == "" {
		response.BadRequest(c, "paper_id and variant are required")
		return "", "", false
	}
	return paperID, variant, true
}

func (h *Handler) get(c *gin.Context) {
	paperID, variant, ok := entryKey(c)
	if !ok {
		return
	}

	entry, err := h.svc.Find(c.Request.Context(), paperID, variant)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if entry == nil {
		response.NotFoundMsg(c, "history entry not found")
		return
	}
	response.OK(c, entry)
}

func (h *Handler) delete(c *gin.Context) {
	paperID, variant, ok := entryKey(c)
	if !ok {
		return
	}

	removed, err := h.svc.Delete(c.Request.Context(), paperID, variant)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !removed {
		response.NotFoundMsg(c, "history entry not found")
		return
	}
	response.NoContent(c)
}

func (h *Handler) clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context()); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) export(c *gin.Context) {
	file, err := h.svc.Export(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, file)
}

// POST /history/import — merge an export file. Validation failures
// abort the whole import; nothing is partially applied.
func (h *Handler) importFile(c *gin.Context) {
	var file ExportFile
	if err := c.ShouldBindJSON(&file); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	count, err := h.svc.Import(c.Request.Context(), &file)
	if err != nil {
		if errors.Is(err, ErrInvalidImport) {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"imported": count})
}
