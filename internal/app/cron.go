package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/paperlens/core/internal/models"
	pkgcron "github.com/paperlens/core/internal/pkg/cron"
	pkgredis "github.com/paperlens/core/internal/pkg/redis"
	"github.com/paperlens/core/internal/pkg/taskqueue"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, rc *pkgredis.Client, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")
	taskSvc := taskqueue.NewService(rc)

	sched.Register(pkgcron.Job{
		Name:        "cleanup_summary_archive",
		Description: "purge soft-deleted summaries older than 30 days",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			if db == nil {
				return nil
			}
			cutoff := time.Now().AddDate(0, 0, -30)
			result := db.WithContext(ctx).Unscoped().
				Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
				Delete(&models.SummaryModel{})
			if result.Error != nil {
				cronLogger.Warn("archive cleanup failed", zap.Error(result.Error))
				return result.Error
			}
			cronLogger.Info(fmt.Sprintf("archive cleanup done, removed %d rows", result.RowsAffected))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "prune_task_index",
		Description: "drop expired entries from the background task index",
		Interval:    12 * time.Hour,
		Fn: func(ctx context.Context) error {
			removed, err := taskSvc.Prune(ctx, 7*24*time.Hour)
			if err != nil {
				cronLogger.Warn("task index prune failed", zap.Error(err))
				return err
			}
			if removed > 0 {
				cronLogger.Info(fmt.Sprintf("task index pruned, removed %d entries", removed))
			}
			return nil
		},
	})
}
