package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/services"
	"github.com/sahilchouksey/devcamper-api/utils/auth"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
	"gorm.io/gorm"
)

const jobTimeout = 10 * time.Minute

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	courses   *services.CourseService
	blacklist *auth.BlacklistService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, courses *services.CourseService, blacklist *auth.BlacklistService) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:      c,
		db:        db,
		courses:   courses,
		blacklist: blacklist,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	logger.Info("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	logger.Info("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	logger.Info("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every hour: heal averageCost drift
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.run(jobReconcileAverageCosts, m.ReconcileAverageCosts)
	})
	if err != nil {
		return err
	}

	// Daily at 3 AM: purge expired revoked tokens
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.run(jobPurgeRevokedTokens, m.PurgeRevokedTokens)
	})
	if err != nil {
		return err
	}

	logger.Info("All cron jobs registered successfully")
	return nil
}

// run executes job and records the run in cron_job_logs
func (m *CronManager) run(jobName string, job func(ctx context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	logger.Infof("[CRON] Starting job: %s", jobName)

	entry := model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusRunning,
		StartedAt: started,
	}
	if err := m.db.WithContext(ctx).Create(&entry).Error; err != nil {
		logger.Warningf("[CRON] failed to record start of %s: %v", jobName, err)
	}

	message, err := job(ctx)

	finished := time.Now()
	updates := map[string]interface{}{
		"completed_at": finished,
		"duration":     finished.Sub(started).Milliseconds(),
	}
	if err != nil {
		logger.Errorf("[CRON] Error in job: %s - %v", jobName, err)
		updates["status"] = model.CronStatusFailed
		updates["error_msg"] = err.Error()
	} else {
		logger.Infof("[CRON] Completed job: %s - %s", jobName, message)
		updates["status"] = model.CronStatusCompleted
		updates["message"] = message
	}

	if entry.ID == 0 {
		return
	}
	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		logger.Warningf("[CRON] failed to record result of %s: %v", jobName, err)
	}
}
