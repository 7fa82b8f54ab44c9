package cron

import (
	"context"
	"fmt"
)

const (
	jobReconcileAverageCosts = "reconcile_average_costs"
	jobPurgeRevokedTokens    = "purge_revoked_tokens"
)

// ReconcileAverageCosts recomputes averageCost for every bootcamp, fixing
// any recompute that failed after a course write
func (m *CronManager) ReconcileAverageCosts(ctx context.Context) (string, error) {
	n, err := m.courses.ReconcileAll(ctx)
	if err != nil {
		return "", fmt.Errorf("reconciled %d bootcamps before failing: %w", n, err)
	}
	return fmt.Sprintf("Reconciled %d bootcamps", n), nil
}

// PurgeRevokedTokens deletes blacklist entries whose tokens have expired
func (m *CronManager) PurgeRevokedTokens(ctx context.Context) (string, error) {
	removed, err := m.blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return fmt.Sprintf("Removed %d expired revoked tokens", removed), nil
}
