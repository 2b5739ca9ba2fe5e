// Package jobs runs periodic background work on github.com/robfig/cron/v3.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher recomputes cached estimates and reports how many it refreshed.
// Satisfied by *service.EstimateService.
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// EstimateRefreshJob keeps auto_daily preparation estimates warm.
type EstimateRefreshJob struct {
	refresher Refresher
	spec      string
	timeout   time.Duration
	cron      *cron.Cron
	log       *logrus.Entry
}

// NewEstimateRefreshJob creates the job. spec is a standard cron expression
// or a descriptor such as "@every 5m".
func NewEstimateRefreshJob(refresher Refresher, spec string, log *logrus.Entry) *EstimateRefreshJob {
	return &EstimateRefreshJob{
		refresher: refresher,
		spec:      spec,
		timeout:   time.Minute,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:       log.WithField("component", "estimate_refresh_job"),
	}
}

// Start schedules the job. It fails on an invalid spec.
func (j *EstimateRefreshJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.Run); err != nil {
		return fmt.Errorf("schedule estimate refresh %q: %w", j.spec, err)
	}
	j.cron.Start()
	j.log.WithField("spec", j.spec).Info("estimate refresh job started")
	return nil
}

// Run performs one refresh.
func (j *EstimateRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.refresher.RefreshAll(ctx)
	if err != nil {
		j.log.WithError(err).Error("estimate refresh failed")
		return
	}
	j.log.WithFields(logrus.Fields{
		"establishments": n,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Debug("estimates refreshed")
}

// Stop unschedules the job and waits for a running refresh to finish or ctx
// to expire.
func (j *EstimateRefreshJob) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
	j.log.Info("estimate refresh job stopped")
}
