package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paperlens/core/internal/models"
	"github.com/paperlens/core/internal/modules/history"
	"github.com/paperlens/core/internal/modules/keywords"
	"github.com/paperlens/core/internal/modules/markdown"
)

// ErrNotFound marks a remote document that no longer exists; the
// reconciler clears the stale mapping and falls back instead of failing.
var ErrNotFound = errors.New("remote document not found")

const (
	databaseTitle    = "Paper Summaries"
	fullMarkerText   = "📊 Full analysis available below"
	minimalBodyText  = "Abstract summary not available. Created as an anchor for the full analysis."
	fullAnalysisName = "Full Analysis"
)

// Summary is the local record being pushed remote.
type Summary struct {
	PaperID    string
	Title      string
	URL        string
	Markdown   string
	ProviderID string
	ModelID    string
	CreatedAt  time.Time
}

// AbstractSource looks up a stored abstract summary for anchor synthesis.
type AbstractSource interface {
	Find(ctx context.Context, paperID string, variant string) (*history.Entry, error)
}

// Reconciler drives the two-tier sync protocol: a database entry per
// abstract, a child page per full analysis, and the completion flag on
// the anchor. All remote calls go through the relay.
type Reconciler struct {
	relay      Relay
	token      string
	parentPage string
	databaseID string
	mappings   *MappingStore
	abstracts  AbstractSource
	translator *markdown.Translator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReconciler(relay Relay, token, parentPage, databaseID string, mappings *MappingStore, abstracts AbstractSource, translator *markdown.Translator) *Reconciler {
	if translator == nil {
		translator = markdown.NewTranslator(markdown.Options{})
	}
	return &Reconciler{
		relay:      relay,
		token:      token,
		parentPage: parentPage,
		databaseID: databaseID,
		mappings:   mappings,
		abstracts:  abstracts,
		translator: translator,
		locks:      map[string]*sync.Mutex{},
	}
}

// lockFor serializes all sync work per paperId, closing the
// double-child-page race between concurrent full syncs.
func (r *Reconciler) lockFor(paperID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, ok := r.locks[paperID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	r.locks[paperID] = lock
	return lock
}

func (r *Reconciler) call(ctx context.Context, action Action, targetID string, body interface{}) (*Reply, error) {
	if r.token == "" {
		return nil, errors.New("notion token is not configured")
	}
	reply, err := r.relay.Call(ctx, Message{
		Action:     action,
		Credential: r.token,
		TargetID:   targetID,
		Body:       body,
	})
	if err != nil {
		return nil, err
	}
	if !reply.Success {
		if reply.NotFound() {
			return reply, ErrNotFound
		}
		return reply, errors.New(reply.Error)
	}
	return reply, nil
}

func replyID(reply *Reply) (string, error) {
	var payload struct {
		ID       string `json:"id"`
		Archived bool   `json:"archived"`
	}
	if err := json.Unmarshal(reply.Data, &payload); err != nil {
		return "", fmt.Errorf("unexpected relay payload: %w", err)
	}
	if payload.ID == "" {
		return "", errors.New("relay payload has no id")
	}
	return payload.ID, nil
}

// Mapping returns the stored remote links for a paper.
func (r *Reconciler) Mapping(ctx context.Context, paperID string) (Mapping, error) {
	return r.mappings.Get(ctx, paperID)
}

// TestConnection verifies the token by fetching the integration user.
func (r *Reconciler) TestConnection(ctx context.Context) (string, error) {
	reply, err := r.call(ctx, ActionGetUser, "", nil)
	if err != nil {
		return "", err
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(reply.Data, &payload); err != nil || payload.Name == "" {
		return "Unknown", nil
	}
	return payload.Name, nil
}

// ensureDatabase provisions the abstract database at most once; the
// cached id is reused without re-verifying its existence.
func (r *Reconciler) ensureDatabase(ctx context.Context) (string, error) {
	if r.databaseID != "" {
		return r.databaseID, nil
	}

	cached, err := r.mappings.DatabaseID(ctx)
	if err != nil {
		return "", err
	}
	if cached != "" {
		return cached, nil
	}

	if r.parentPage == "" {
		return "", errors.New("notion parent page is not configured")
	}

	reply, err := r.call(ctx, ActionCreateDatabase, "", map[string]interface{}{
		"parent": map[string]interface{}{
			"type":    "page_id",
			"page_id": r.parentPage,
		},
		"title":      []map[string]interface{}{textSpan(databaseTitle, nil)},
		"properties": DatabaseSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("database provisioning failed: %w", err)
	}

	id, err := replyID(reply)
	if err != nil {
		return "", err
	}
	if err := r.mappings.SetDatabaseID(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// SyncAbstract creates a new database entry for the abstract. A resync
// always creates a fresh page and repoints the mapping; the prior page
// is never amended, and any stale full pointer is cleared.
func (r *Reconciler) SyncAbstract(ctx context.Context, s Summary) (string, error) {
	lock := r.lockFor(s.PaperID)
	lock.Lock()
	defer lock.Unlock()
	return r.syncAbstractLocked(ctx, s)
}

func (r *Reconciler) syncAbstractLocked(ctx context.Context, s Summary) (string, error) {
	databaseID, err := r.ensureDatabase(ctx)
	if err != nil {
		return "", err
	}

	reply, err := r.call(ctx, ActionCreatePage, "", map[string]interface{}{
		"parent": map[string]interface{}{"database_id": databaseID},
		"properties": PageProperties(PageMeta{
			Title:      s.Title,
			URL:        s.URL,
			ProviderID: s.ProviderID,
			ModelID:    s.ModelID,
			Keywords:   keywords.Extract(s.Markdown),
			CreatedAt:  s.CreatedAt,
			Completed:  false,
		}),
		"children": ToBlocks(r.translator.Translate(s.Markdown)),
	})
	if err != nil {
		return "", fmt.Errorf("abstract page creation failed: %w", err)
	}

	pageID, err := replyID(reply)
	if err != nil {
		return "", err
	}

	err = r.mappings.Update(ctx, s.PaperID, func(m *Mapping) {
		m.AbstractDocID = pageID
		m.FullDocID = "" // a fresh abstract invalidates the old full-page link
	})
	if err != nil {
		return "", err
	}
	return pageID, nil
}

// SyncFull resolves (or synthesizes) the abstract anchor, appends the
// marker blocks, creates a new full-analysis child page, and flags the
// anchor complete. Each call appends a new child; the anchor is reused.
func (r *Reconciler) SyncFull(ctx context.Context, s Summary) (string, error) {
	lock := r.lockFor(s.PaperID)
	lock.Lock()
	defer lock.Unlock()

	anchorID, err := r.resolveAnchor(ctx, s)
	if err != nil {
		return "", err
	}

	_, err = r.call(ctx, ActionAppendBlocks, anchorID, map[string]interface{}{
		"children": []map[string]interface{}{
			wrap("divider", map[string]interface{}{}),
			wrap("paragraph", map[string]interface{}{
				"rich_text": []map[string]interface{}{textSpan(fullMarkerText, nil)},
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anchor marker append failed: %w", err)
	}

	childID, err := r.createFullChild(ctx, anchorID, s)
	if err != nil {
		return "", err
	}

	err = r.mappings.Update(ctx, s.PaperID, func(m *Mapping) {
		m.FullDocID = childID
	})
	if err != nil {
		return "", err
	}

	_, err = r.call(ctx, ActionUpdatePage, anchorID, map[string]interface{}{
		"properties": CompletedProperty(true),
	})
	if err != nil {
		return "", fmt.Errorf("completion flag update failed: %w", err)
	}

	return childID, nil
}

// resolveAnchor finds the abstract page the full analysis hangs off:
// the mapped page when it still exists, a page synthesized from the
// stored abstract summary, or a minimal placeholder page. Whichever
// path wins, the anchor id is persisted before the caller proceeds.
func (r *Reconciler) resolveAnchor(ctx context.Context, s Summary) (string, error) {
	mapping, err := r.mappings.Get(ctx, s.PaperID)
	if err != nil {
		return "", err
	}

	if mapping.AbstractDocID != "" {
		reply, probeErr := r.call(ctx, ActionGetPage, mapping.AbstractDocID, nil)
		switch {
		case probeErr == nil && !pageArchived(reply):
			return mapping.AbstractDocID, nil
		case errors.Is(probeErr, ErrNotFound) || (probeErr == nil && pageArchived(reply)):
			// Stale pointer: clear it and fall through to synthesis.
			err = r.mappings.Update(ctx, s.PaperID, func(m *Mapping) {
				m.AbstractDocID = ""
				m.FullDocID = ""
			})
			if err != nil {
				return "", err
			}
		default:
			return "", probeErr
		}
	}

	synthesized := s
	if r.abstracts != nil {
		stored, findErr := r.abstracts.Find(ctx, s.PaperID, string(models.VariantAbstract))
		if findErr != nil {
			return "", findErr
		}
		if stored != nil {
			synthesized = Summary{
				PaperID:    stored.PaperID,
				Title:      stored.Title,
				URL:        stored.URL,
				Markdown:   stored.Markdown,
				ProviderID: stored.ProviderID,
				ModelID:    stored.ModelID,
				CreatedAt:  stored.CreatedAt,
			}
			return r.syncAbstractLocked(ctx, synthesized)
		}
	}

	// Minimal synthesis: title and url only, placeholder body.
	synthesized.Markdown = minimalBodyText
	return r.syncAbstractLocked(ctx, synthesized)
}

func pageArchived(reply *Reply) bool {
	var payload struct {
		Archived bool `json:"archived"`
	}
	if err := json.Unmarshal(reply.Data, &payload); err != nil {
		return false
	}
	return payload.Archived
}

func (r *Reconciler) createFullChild(ctx context.Context, anchorID string, s Summary) (string, error) {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	meta := fmt.Sprintf("Provider: %s", providerCategory(s.ProviderID))
	if s.ModelID != "" {
		meta += fmt.Sprintf(" · Model: %s", s.ModelID)
	}
	meta += fmt.Sprintf(" · Date: %s", createdAt.Format("2006-01-02"))
	if kws := keywords.Extract(s.Markdown); len(kws) > 0 {
		meta += fmt.Sprintf(" · Keywords: %s", joinKeywords(kws))
	}

	children := []map[string]interface{}{
		wrap("callout", map[string]interface{}{
			"rich_text": []map[string]interface{}{textSpan(meta, nil)},
			"icon":      map[string]interface{}{"type": "emoji", "emoji": "🧾"},
		}),
		wrap("divider", map[string]interface{}{}),
	}
	children = append(children, ToBlocks(r.translator.Translate(s.Markdown))...)
	if len(children) > markdown.DefaultMaxBlocks {
		children = children[:markdown.DefaultMaxBlocks]
	}

	title := fullAnalysisName
	if s.Title != "" {
		title = fullAnalysisName + " — " + s.Title
	}

	reply, err := r.call(ctx, ActionCreatePage, "", map[string]interface{}{
		"parent": map[string]interface{}{"page_id": anchorID},
		"properties": map[string]interface{}{
			"title": map[string]interface{}{
				"title": []map[string]interface{}{textSpan(truncateRunes(title, maxTitleLen), nil)},
			},
		},
		"children": children,
	})
	if err != nil {
		return "", fmt.Errorf("full analysis page creation failed: %w", err)
	}
	return replyID(reply)
}

func joinKeywords(kws []string) string {
	out := ""
	for i, kw := range kws {
		if i > 0 {
			out += ", "
		}
		out += kw
	}
	return out
}
