// Package autorefresh implements the periodic auto-refresh loop of spec
// §4.10/C10: on a cron tick, enumerate feeds whose refresh interval has
// elapsed and enqueue a refresh-feed job for each via the agent (C9).
//
// Grounded on _examples/Saul-Punybz-folio-pr/cmd/worker/main.go's
// cron.New()+AddFunc+context.WithTimeout pattern and graceful
// Stop()-returns-a-context shutdown idiom.
package autorefresh

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/zapfr/engine/internal/agent"
	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/refresh"
)

// Config is the auto-refresh loop's Viper-bound configuration.
type Config struct {
	// Schedule is a standard 5-field cron expression (spec: "configurable
	// tick interval"); "@every 5m" is also accepted by robfig/cron.
	Schedule        string `mapstructure:"schedule"`
	DefaultInterval time.Duration `mapstructure:"default_interval"`
}

// Loop ticks on Config.Schedule, enqueuing a refresh-feed job per due feed.
type Loop struct {
	cfg      Config
	repo     *database.Repository
	pipeline *refresh.Pipeline
	jobAgent *agent.Agent
	logger   *zap.Logger

	// OnRefreshed, if set, is invoked from the job's completion callback
	// after a successful refresh (the "feed refreshed" hook of spec §4.10).
	OnRefreshed func(feedID uuid.UUID)

	cron *cron.Cron
}

// New returns a ready-to-Start auto-refresh Loop.
func New(cfg Config, repo *database.Repository, pipeline *refresh.Pipeline, jobAgent *agent.Agent, logger *zap.Logger) *Loop {
	return &Loop{cfg: cfg, repo: repo, pipeline: pipeline, jobAgent: jobAgent, logger: logger}
}

// Start schedules the periodic tick. It does not block.
func (l *Loop) Start(ctx context.Context) error {
	l.cron = cron.New()
	_, err := l.cron.AddFunc(l.cfg.Schedule, func() {
		l.tick(ctx)
	})
	if err != nil {
		return err
	}
	l.cron.Start()
	return nil
}

// Stop halts the cron scheduler and waits for any in-flight tick to finish.
func (l *Loop) Stop() {
	if l.cron == nil {
		return
	}
	stopCtx := l.cron.Stop()
	<-stopCtx.Done()
}

// tick enumerates due feeds and enqueues a refresh job for each.
func (l *Loop) tick(ctx context.Context) {
	due, err := l.repo.ListDueFeeds(ctx, time.Now(), l.cfg.DefaultInterval)
	if err != nil {
		l.logErr("list due feeds failed", err)
		return
	}
	for _, feed := range due {
		feedID := feed.ID
		l.jobAgent.Enqueue(&agent.Job{
			Kind:        "refresh-feed",
			ResourceKey: "feed:" + feedID.String(),
			Run: func(ctx context.Context) (any, error) {
				return l.pipeline.RefreshFeed(ctx, feedID)
			},
			OnComplete: func(result any, err error) {
				if err != nil {
					l.logErr("auto-refresh failed for feed "+feedID.String(), err)
					return
				}
				if l.OnRefreshed != nil {
					l.OnRefreshed(feedID)
				}
			},
		})
	}
}

func (l *Loop) logErr(msg string, err error) {
	if l.logger == nil {
		return
	}
	l.logger.Error(msg, zap.Error(err))
}
