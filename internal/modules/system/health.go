// Package system exposes operational endpoints: liveness, cron job
// introspection, and log file management.
package system

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/paperlens/core/internal/pkg/cron"
	"github.com/paperlens/core/internal/pkg/nativelog"
	pkgredis "github.com/paperlens/core/internal/pkg/redis"
	"github.com/paperlens/core/internal/pkg/response"
)

type logItem struct {
	Size     string `json:"size"`
	Filename string `json:"filename"`
	Created  int64  `json:"created"`
}

func RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB, rc *pkgredis.Client, sched *cron.Scheduler, authMW gin.HandlerFunc) {
	rg.GET("/health", func(c *gin.Context) {
		dbOK := false
		if db != nil {
			sqlDB, err := db.DB()
			dbOK = err == nil && sqlDB.Ping() == nil
		}
		redisOK := rc.Raw().Ping(c.Request.Context()).Err() == nil

		status := "ok"
		code := http.StatusOK
		if !dbOK || !redisOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": dbOK,
			"redis":    redisOK,
		})
	})

	adminHealth := rg.Group("/health", authMW)
	cronGroup := adminHealth.Group("/cron")
	{
		cronGroup.GET("", func(c *gin.Context) {
			items := sched.List()
			byName := make(map[string]cron.ListItem, len(items))
			for _, item := range items {
				byName[item.Name] = item
			}
			response.OK(c, byName)
		})

		cronGroup.POST("/run/:name", func(c *gin.Context) {
			if err := sched.Run(c.Request.Context(), c.Param("name")); err != nil {
				response.NotFoundMsg(c, err.Error())
				return
			}
			response.OK(c, gin.H{"message": "job triggered"})
		})

		cronGroup.GET("/task/:name", func(c *gin.Context) {
			result, err := sched.GetTask(c.Param("name"))
			if err != nil {
				response.NotFoundMsg(c, err.Error())
				return
			}
			response.OK(c, result)
		})
	}

	logGroup := adminHealth.Group("/log")
	{
		logGroup.GET("/list", func(c *gin.Context) {
			logDir := nativelog.ResolveDir()
			entries, err := os.ReadDir(logDir)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					response.OK(c, []logItem{})
					return
				}
				response.BadRequest(c, "log dir not exists")
				return
			}

			items := make([]logItem, 0, len(entries))
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				info, err := entry.Info()
				if err != nil {
					continue
				}
				items = append(items, logItem{
					Size:     formatByteSize(info.Size()),
					Filename: entry.Name(),
					Created:  info.ModTime().UnixMilli(),
				})
			}

			sort.Slice(items, func(i, j int) bool {
				return items[i].Created > items[j].Created
			})
			response.OK(c, items)
		})

		logGroup.GET("", func(c *gin.Context) {
			filename := filepath.Base(strings.TrimSpace(c.Query("filename")))
			if filename == "" || filename == "." || filename == string(filepath.Separator) {
				response.UnprocessableEntity(c, "filename must be string")
				return
			}

			data, err := os.ReadFile(filepath.Join(nativelog.ResolveDir(), filename))
			if err != nil {
				response.BadRequest(c, "log file not exists")
				return
			}
			c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
		})

		logGroup.DELETE("", func(c *gin.Context) {
			filename := filepath.Base(strings.TrimSpace(c.Query("filename")))
			if filename == "" || filename == "." || filename == string(filepath.Separator) {
				response.UnprocessableEntity(c, "filename must be string")
				return
			}

			logDir := nativelog.ResolveDir()
			targetPath := filepath.Join(logDir, filename)
			todayPath := filepath.Join(logDir, nativelog.TodayFilename(time.Now()))

			// The active file and the error log stay open in the writer;
			// truncate those instead of unlinking.
			if strings.HasSuffix(strings.ToLower(targetPath), "error.log") || samePath(targetPath, todayPath) {
				if err := os.WriteFile(targetPath, []byte(""), 0o644); err != nil && !errors.Is(err, os.ErrNotExist) {
					response.InternalError(c, err)
					return
				}
			} else if err := os.Remove(targetPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				response.InternalError(c, err)
				return
			}
			response.NoContent(c)
		})
	}
}

func formatByteSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func samePath(a, b string) bool {
	left := filepath.Clean(a)
	right := filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(left, right)
	}
	return left == right
}
