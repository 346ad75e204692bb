package provider

import (
	"fmt"
	"strings"

	"github.com/paperlens/core/internal/config"
)

// New builds the provider variant for one configured backend. Adding a
// backend protocol means adding a variant, not editing callers.
func New(cfg config.Provider, relay Relay) (Provider, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(cfg.Type))) {
	case KindWebhook:
		return NewWebhook(cfg.Name, cfg.Endpoint), nil
	case KindClaude:
		return NewClaude(cfg.Name, cfg.APIKey, cfg.Model, cfg.Endpoint, relay), nil
	case KindOpenAI:
		return NewOpenAI(cfg.Name, cfg.APIKey, cfg.Model, cfg.Endpoint), nil
	case KindGeneric:
		return NewGeneric(cfg.Name, cfg.Endpoint, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
