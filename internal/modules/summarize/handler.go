package summarize

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperlens/core/internal/modules/provider"
	"github.com/paperlens/core/internal/pkg/pagination"
	"github.com/paperlens/core/internal/pkg/response"
	"github.com/paperlens/core/internal/pkg/taskqueue"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	summaries := rg.Group("/summaries")
	summaries.POST("/generate", h.generate)
	summaries.POST("/stream", h.stream)
	summaries.GET("/stored", h.getStored)

	tasks := summaries.Group("/tasks", authMW)
	tasks.POST("", h.enqueueTask)
	tasks.GET("", h.listTasks)
	tasks.GET("/:id", h.getTask)
	tasks.DELETE("/:id", h.cancelTask)
}

type generateBody struct {
	PaperID    string `json:"paper_id"`
	Title      string `json:"title" binding:"required"`
	URL        string `json:"url"`
	Text       string `json:"text" binding:"required"`
	Variant    string `json:"variant"`
	ProviderID string `json:"provider_id"`
	Language   string `json:"language"`
}

func (b generateBody) toRequest() GenerateRequest {
	return GenerateRequest{
		PaperID:    b.PaperID,
		Title:      b.Title,
		URL:        b.URL,
		Text:       b.Text,
		Variant:    b.Variant,
		ProviderID: b.ProviderID,
		Language:   b.Language,
	}
}

// respondError maps generation failures onto HTTP statuses: bad
// configuration is the caller's problem, backend rejections are
// upstream failures.
func respondError(c *gin.Context, err error) {
	var backendErr *provider.BackendError
	switch {
	case errors.Is(err, provider.ErrNotConfigured), errors.Is(err, ErrNoProvider):
		response.BadRequest(c, err.Error())
	case errors.As(err, &backendErr):
		response.BadGateway(c, backendErr.Error())
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) generate(c *gin.Context) {
	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Generate(c.Request.Context(), body.toRequest(), nil)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// stream runs a generation over SSE. Each provider update is forwarded
// as a "token" event carrying the newly appended text; the terminal
// "done" event carries the full result, usage and cost included.
func (h *Handler) stream(c *gin.Context) {
	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sendEvent := func(eventType, data string) {
		fmt.Fprintf(c.Writer, "data: %s\n\n", fmt.Sprintf(`{"type":%q,"data":%s}`, eventType, data))
		c.Writer.Flush()
	}

	sent := 0
	onUpdate := func(cumulative string) {
		if len(cumulative) <= sent {
			return
		}
		chunk, _ := json.Marshal(cumulative[sent:])
		sent = len(cumulative)
		sendEvent("token", string(chunk))
	}

	result, err := h.svc.Generate(c.Request.Context(), body.toRequest(), onUpdate)
	if err != nil {
		msg, _ := json.Marshal(err.Error())
		sendEvent("error", string(msg))
		return
	}

	if result.Usage != nil {
		usage, _ := json.Marshal(result.Usage)
		sendEvent("usage", string(usage))
	}
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte("null")
	}
	sendEvent("done", string(payload))
}

func (h *Handler) getStored(c *gin.Context) {
	paperID := c.Query("paper_id")
	if paperID == "" {
		response.BadRequest(c, "paper_id is required")
		return
	}
	variant, err := normalizeVariant(c.Query("variant"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	record, err := h.svc.GetStored(c.Request.Context(), paperID, variant)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if record == nil {
		response.NotFoundMsg(c, "summary not found")
		return
	}
	response.OK(c, record)
}

func (h *Handler) enqueueTask(c *gin.Context) {
	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	task, err := h.svc.EnqueueGenerate(c.Request.Context(), body.toRequest())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Accepted(c, task)
}

func (h *Handler) listTasks(c *gin.Context) {
	q := pagination.FromContext(c)
	page, size := q.Page, q.Size

	taskType := TaskTypeGenerate
	var status *taskqueue.TaskStatus
	if v := c.Query("status"); v != "" {
		s := taskqueue.TaskStatus(v)
		status = &s
	}

	tasks, total, err := h.svc.tasks.List(c.Request.Context(), page, size, &taskType, status)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	totalPage := int(total) / size
	if int(total)%size != 0 {
		totalPage++
	}
	response.Paged(c, tasks, response.Pagination{
		Total:       total,
		CurrentPage: page,
		TotalPage:   totalPage,
		Size:        size,
		HasNextPage: page < totalPage,
	})
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.svc.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil {
		response.NotFoundMsg(c, "task not found")
		return
	}
	response.OK(c, task)
}

func (h *Handler) cancelTask(c *gin.Context) {
	if err := h.svc.tasks.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.NoContent(c)
}
