package app

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paperlens/core/internal/config"
	"github.com/paperlens/core/internal/pkg/cluster"
	jwtpkg "github.com/paperlens/core/internal/pkg/jwt"
)

func applyRuntimeSettings(cfg *config.AppConfig, logger *zap.Logger) {
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else if cluster.ShouldLogBootstrap() {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Truncate(time.Second).String()
	}
	if d < time.Hour {
		return d.Truncate(time.Minute).String()
	}
	if d < 24*time.Hour {
		return d.Truncate(time.Hour).String()
	}
	return d.Truncate(24 * time.Hour).String()
}
