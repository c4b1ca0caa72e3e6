package db

import (
	"context"

	"school_resource_hub/models"
)

func (r *Repo) CreateLoan(ctx context.Context, l *models.Loan) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

func (r *Repo) FindLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	var l models.Loan
	if err := r.DB.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &l, nil
}

// SaveLoan persists the full row, JSON columns included. The loan side of a
// transition is always a single-row write; resource writes are issued
// separately and never share a transaction with it.
func (r *Repo) SaveLoan(ctx context.Context, l *models.Loan) error {
	return r.DB.WithContext(ctx).Save(l).Error
}

func (r *Repo) ListLoans(ctx context.Context, userID string, status models.LoanStatus) ([]models.Loan, error) {
	q := r.DB.WithContext(ctx).Model(&models.Loan{}).Order("created_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var ls []models.Loan
	if err := q.Find(&ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}

func (r *Repo) ListLoansByStatus(ctx context.Context, status models.LoanStatus) ([]models.Loan, error) {
	return r.ListLoans(ctx, "", status)
}
