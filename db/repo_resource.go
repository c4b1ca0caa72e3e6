package db

import (
	"context"
	"errors"

	"school_resource_hub/models"
)

var ErrResourceLoaned = errors.New("resource is currently loaned out")

func (r *Repo) CreateResource(ctx context.Context, res *models.Resource) error {
	return r.DB.WithContext(ctx).Create(res).Error
}

func (r *Repo) FindResourceByID(ctx context.Context, id string) (*models.Resource, error) {
	var res models.Resource
	if err := r.DB.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &res, nil
}

func (r *Repo) ListResources(ctx context.Context) ([]models.Resource, error) {
	var rs []models.Resource
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&rs).Error
	return rs, err
}

func (r *Repo) ListResourcesByStatus(ctx context.Context, status models.ResourceStatus) ([]models.Resource, error) {
	var rs []models.Resource
	err := r.DB.WithContext(ctx).Where("status = ?", status).Find(&rs).Error
	return rs, err
}

// UpdateResourceStatus writes the new status; damage_notes is kept only while
// the resource sits in dañado or mantenimiento, otherwise it is cleared.
func (r *Repo) UpdateResourceStatus(ctx context.Context, id string, status models.ResourceStatus, notes string) (*models.Resource, error) {
	if status == models.ResourceAvailable || status == models.ResourceLoaned {
		notes = ""
	}
	tx := r.DB.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "damage_notes": notes})
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindResourceByID(ctx, id)
}

// DeleteResource deregisters a resource permanently. A resource that is
// checked out cannot be deleted; return it first.
func (r *Repo) DeleteResource(ctx context.Context, id string) error {
	res, err := r.FindResourceByID(ctx, id)
	if err != nil {
		return err
	}
	if res.Status == models.ResourceLoaned {
		return ErrResourceLoaned
	}
	return r.DB.WithContext(ctx).Delete(&models.Resource{}, "id = ?", id).Error
}
