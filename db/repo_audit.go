package db

import (
	"context"
	"fmt"

	"school_resource_hub/models"
)

func (r *Repo) LogTransition(ctx context.Context, loanID, actorID, action, detail string) (*models.TransitionLog, error) {
	entry := &models.TransitionLog{
		ActorID: actorID,
		Action:  action,
		Detail:  detail,
	}
	if loanID != "" {
		entry.LoanID = &loanID
	}
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("insert transition log: %w", err)
	}
	return entry, nil
}

func (r *Repo) ListTransitionLogs(ctx context.Context, loanID string, limit int) ([]models.TransitionLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.DB.WithContext(ctx).Model(&models.TransitionLog{}).
		Order("created_at DESC").Limit(limit)
	if loanID != "" {
		q = q.Where("loan_id = ?", loanID)
	}
	var logs []models.TransitionLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
