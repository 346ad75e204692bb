package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paperlens/core/internal/middleware"
	"github.com/paperlens/core/internal/modules/auth"
	"github.com/paperlens/core/internal/modules/gateway"
	"github.com/paperlens/core/internal/modules/history"
	"github.com/paperlens/core/internal/modules/markdown"
	"github.com/paperlens/core/internal/modules/notion"
	"github.com/paperlens/core/internal/modules/paper"
	"github.com/paperlens/core/internal/modules/provider"
	"github.com/paperlens/core/internal/modules/summarize"
	"github.com/paperlens/core/internal/modules/system"
	"github.com/paperlens/core/internal/pkg/bark"
	pkgredis "github.com/paperlens/core/internal/pkg/redis"
	"github.com/paperlens/core/internal/pkg/response"
	"github.com/paperlens/core/internal/pkg/taskqueue"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	cfg := a.cfg
	authMW := middleware.Auth(cfg.AccessToken)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})

	appInfo := gin.H{
		"name":     "paperlens-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/paperlens/core",
	}

	// Bark push service for rate-limit alerts and task outcomes.
	barkSvc := bark.New(func() (key, serverURL, siteTitle string) {
		return cfg.Notify.BarkKey, cfg.Notify.BarkServer, cfg.Notify.Title
	})

	r.Use(middleware.OptionalAuth(cfg.AccessToken))
	r.Use(middleware.RateLimit(rc.Raw(), barkSvc))

	// Shared services
	taskSvc := taskqueue.NewService(rc)
	blobs := &history.RedisBlobs{Client: rc.Raw()}
	historySvc := history.NewService(blobs, cfg.History.MaxItems, cfg.History.MaxBytes)
	translator := markdown.NewTranslator(markdown.Options{MaxHeadingLevel: cfg.Summary.HeadingCollapse})
	fetcher := paper.NewFullTextFetcher(cfg.Summary.MaxFullTextChars)

	mappings := notion.NewMappingStore(blobs)
	reconciler := notion.NewReconciler(
		notion.NewHTTPRelay(cfg.Notion.Endpoint),
		cfg.Notion.Token, cfg.Notion.ParentPageID, cfg.Notion.DatabaseID,
		mappings, historySvc, translator,
	)

	summarizeSvc := summarize.NewService(a.db, cfg, historySvc, taskSvc, provider.NewHTTPRelay(), a.logger)
	summarizeSvc.AttachHub(a.hub)
	if cfg.Notify.BarkKey != "" {
		summarizeSvc.AttachNotifier(barkSvc)
	}

	// Root-level endpoints: socket.io transport and gateway stats.
	root := r.Group("")
	gateway.RegisterRoutes(root, a.hub)

	// Versioned API
	api := r.Group(apiPrefix)

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})

	system.RegisterRoutes(api, a.db, rc, a.sched, authMW)
	auth.NewHandler(cfg.AccessToken).RegisterRoutes(api, authMW)
	markdown.NewHandler(translator).RegisterRoutes(api, authMW)
	paper.NewHandler(fetcher).RegisterRoutes(api, authMW)
	history.NewHandler(historySvc).RegisterRoutes(api, authMW)
	notion.NewHandler(reconciler).RegisterRoutes(api, authMW)
	summarize.NewHandler(summarizeSvc).RegisterRoutes(api, authMW)
}
