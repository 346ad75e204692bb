package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/paperlens/core/internal/config"
	"github.com/paperlens/core/internal/models"
	"github.com/paperlens/core/internal/modules/gateway"
	"github.com/paperlens/core/internal/modules/history"
	"github.com/paperlens/core/internal/modules/paper"
	"github.com/paperlens/core/internal/modules/provider"
	"github.com/paperlens/core/internal/pkg/bark"
	"github.com/paperlens/core/internal/pkg/taskqueue"
)

// Broadcaster fans generation progress out to watching clients.
type Broadcaster interface {
	BroadcastFrame(event string, frame gateway.StreamFrame)
}

// TaskTypeGenerate is the queue type for background generations.
const TaskTypeGenerate = "summary:generate"

// ErrNoProvider means no enabled provider matched the request.
var ErrNoProvider = errors.New("no enabled summary provider is configured")

// Service runs summary generations end to end. The database and task
// queue are optional; without them generation still works, only the
// archive and background paths are disabled.
type Service struct {
	db       *gorm.DB
	cfg      *config.AppConfig
	history  *history.Service
	tasks    *taskqueue.Service
	relay    provider.Relay
	logger   *zap.Logger
	hub      Broadcaster
	notifier *bark.Service
}

func NewService(db *gorm.DB, cfg *config.AppConfig, historySvc *history.Service, taskSvc *taskqueue.Service, relay provider.Relay, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:      db,
		cfg:     cfg,
		history: historySvc,
		tasks:   taskSvc,
		relay:   relay,
		logger:  logger,
	}
}

// AttachHub enables live progress fan-out. Optional; without a hub the
// service still serves direct callers.
func (s *Service) AttachHub(hub Broadcaster) { s.hub = hub }

// AttachNotifier enables push notifications for background task
// outcomes. Optional.
func (s *Service) AttachNotifier(n *bark.Service) { s.notifier = n }

func normalizeVariant(v string) (models.Variant, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", string(models.VariantAbstract):
		return models.VariantAbstract, nil
	case string(models.VariantFull):
		return models.VariantFull, nil
	default:
		return "", fmt.Errorf("unknown summary variant %q", v)
	}
}

// Generate runs one summary generation. onUpdate, when non-nil,
// receives the cumulative text as the provider streams; a nil onUpdate
// selects the provider's batch path where it offers one.
func (s *Service) Generate(ctx context.Context, req GenerateRequest, onUpdate provider.UpdateFunc) (*GenerateResult, error) {
	variant, err := normalizeVariant(req.Variant)
	if err != nil {
		return nil, err
	}

	providerCfg := s.cfg.SelectProvider(req.ProviderID)
	if providerCfg == nil {
		return nil, ErrNoProvider
	}
	backend, err := provider.New(*providerCfg, s.relay)
	if err != nil {
		return nil, err
	}

	template := s.cfg.Summary.AbstractPrompt
	text := req.Text
	if variant == models.VariantFull {
		template = s.cfg.Summary.FullPrompt
		text = limitRunes(text, s.cfg.Summary.MaxFullTextChars)
	}
	language := req.Language
	if language == "" {
		language = s.cfg.Summary.Language
	}
	paperID := req.PaperID
	if paperID == "" {
		paperID = paper.NormalizeID(req.URL)
	}

	if s.hub != nil {
		inner := onUpdate
		sent := 0
		onUpdate = func(cumulative string) {
			if inner != nil {
				inner(cumulative)
			}
			if len(cumulative) > sent {
				s.hub.BroadcastFrame(gateway.EventDelta, gateway.StreamFrame{
					PaperID: paperID,
					Variant: string(variant),
					Data:    cumulative[sent:],
				})
				sent = len(cumulative)
			}
		}
	}

	result, err := backend.Summarize(ctx, provider.Request{
		Title:    req.Title,
		URL:      req.URL,
		Text:     text,
		Language: language,
		Template: template,
	}, onUpdate)
	if err != nil {
		if s.hub != nil {
			s.hub.BroadcastFrame(gateway.EventError, gateway.StreamFrame{
				PaperID: paperID,
				Variant: string(variant),
				Data:    err.Error(),
			})
		}
		return nil, err
	}

	modelID := result.ModelID
	if modelID == "" {
		modelID = providerCfg.Model
	}

	entry := history.Entry{
		PaperID:    paperID,
		Variant:    variant,
		Title:      req.Title,
		URL:        req.URL,
		Markdown:   result.Text,
		ProviderID: providerCfg.ID,
		ModelID:    modelID,
		Usage:      result.Usage,
		CreatedAt:  time.Now(),
	}

	// Persistence is best-effort: the summary was generated, losing the
	// archive must not lose the response.
	if s.history != nil {
		if saveErr := s.history.Save(ctx, entry); saveErr != nil {
			s.logger.Warn("history save failed", zap.String("paper_id", paperID), zap.Error(saveErr))
		}
	}
	if dbErr := s.persistSummary(ctx, entry); dbErr != nil {
		s.logger.Warn("summary archive failed", zap.String("paper_id", paperID), zap.Error(dbErr))
	}

	if s.hub != nil {
		if result.Usage != nil {
			s.hub.BroadcastFrame(gateway.EventUsageInput, gateway.StreamFrame{
				PaperID: paperID, Variant: string(variant), Data: result.Usage.InputTokens,
			})
			s.hub.BroadcastFrame(gateway.EventUsageOutput, gateway.StreamFrame{
				PaperID: paperID, Variant: string(variant), Data: result.Usage.OutputTokens,
			})
		}
		s.hub.BroadcastFrame(gateway.EventDone, gateway.StreamFrame{
			PaperID: paperID,
			Variant: string(variant),
		})
	}

	return &GenerateResult{
		PaperID:    paperID,
		Variant:    variant,
		Title:      req.Title,
		URL:        req.URL,
		Markdown:   result.Text,
		ProviderID: providerCfg.ID,
		ModelID:    modelID,
		Usage:      result.Usage,
		Cost:       EstimateCost(modelID, result.Usage),
	}, nil
}

// persistSummary upserts the summary row keyed by (paper_id, variant).
func (s *Service) persistSummary(ctx context.Context, e history.Entry) error {
	if s.db == nil {
		return nil
	}

	size := len(e.Markdown)
	if raw, err := json.Marshal(e); err == nil {
		size = len(raw)
	}
	record := models.SummaryModel{
		PaperID:  e.PaperID,
		Variant:  e.Variant,
		Title:    e.Title,
		URL:      e.URL,
		Markdown: e.Markdown,
		Provider: e.ProviderID,
		ModelID:  e.ModelID,
		Size:     size,
	}
	if e.Usage != nil {
		record.InputTokens = e.Usage.InputTokens
		record.OutputTokens = e.Usage.OutputTokens
	}

	var existing models.SummaryModel
	err := s.db.WithContext(ctx).
		Where("paper_id = ? AND variant = ?", e.PaperID, e.Variant).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(&record).Error
	case err != nil:
		return err
	default:
		record.Base = existing.Base
		return s.db.WithContext(ctx).Save(&record).Error
	}
}

// GetStored returns the archived summary for (paperId, variant), or nil.
func (s *Service) GetStored(ctx context.Context, paperID string, variant models.Variant) (*models.SummaryModel, error) {
	if s.db == nil {
		return nil, nil
	}
	var record models.SummaryModel
	err := s.db.WithContext(ctx).
		Where("paper_id = ? AND variant = ?", paperID, variant).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// EnqueueGenerate queues a background generation, deduplicated per
// (paperId, variant) while a task is still in flight.
func (s *Service) EnqueueGenerate(ctx context.Context, req GenerateRequest) (*taskqueue.Task, error) {
	if s.tasks == nil {
		return nil, errors.New("task queue is not configured")
	}
	variant, err := normalizeVariant(req.Variant)
	if err != nil {
		return nil, err
	}
	if req.PaperID == "" {
		req.PaperID = paper.NormalizeID(req.URL)
	}
	req.Variant = string(variant)

	dedupKey := req.PaperID + ":" + req.Variant
	task, err := s.tasks.Enqueue(ctx, TaskTypeGenerate, req, dedupKey, req.PaperID)
	if err != nil {
		return nil, err
	}
	if task.Status == taskqueue.TaskPending {
		go s.executeGenerate(context.Background(), task.ID, req)
	}
	return task, nil
}

func (s *Service) executeGenerate(ctx context.Context, taskID string, req GenerateRequest) {
	if err := s.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskRunning, nil, ""); err != nil {
		s.logger.Warn("task start failed", zap.String("task_id", taskID), zap.Error(err))
		return
	}

	result, err := s.Generate(ctx, req, nil)
	if err != nil {
		_ = s.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		if s.notifier != nil {
			_ = s.notifier.Push("summary failed", fmt.Sprintf("%s (%s): %s", req.Title, req.Variant, err.Error()))
		}
		return
	}
	_ = s.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskCompleted, result, "")
	if s.notifier != nil {
		_ = s.notifier.Push("summary ready", fmt.Sprintf("%s (%s)", req.Title, req.Variant))
	}
}

func limitRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
