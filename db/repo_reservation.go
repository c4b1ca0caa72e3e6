package db

import (
	"context"

	"school_resource_hub/models"
)

func (r *Repo) CreateReservation(ctx context.Context, rv *models.Reservation) error {
	return r.DB.WithContext(ctx).Create(rv).Error
}

func (r *Repo) FindReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	var rv models.Reservation
	if err := r.DB.WithContext(ctx).First(&rv, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &rv, nil
}

func (r *Repo) ListReservations(ctx context.Context, userID, resourceID string) ([]models.Reservation, error) {
	q := r.DB.WithContext(ctx).Model(&models.Reservation{}).Order("starts_at")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if resourceID != "" {
		q = q.Where("resource_id = ?", resourceID)
	}
	var rvs []models.Reservation
	if err := q.Find(&rvs).Error; err != nil {
		return nil, err
	}
	return rvs, nil
}

func (r *Repo) UpdateReservationStatus(ctx context.Context, id string, status models.ReservationStatus) (*models.Reservation, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("status", status)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindReservationByID(ctx, id)
}

func (r *Repo) DeleteReservation(ctx context.Context, id string) error {
	tx := r.DB.WithContext(ctx).Delete(&models.Reservation{}, "id = ?", id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
