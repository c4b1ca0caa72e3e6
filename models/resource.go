// models/resource.go
package models

import "time"

const ResourceTable = "srh_resources"
const CategoryTable = "srh_categories"

// ResourceStatus values are persisted in Spanish; the original dataset was
// seeded that way and the frontend matches on these exact strings.
type ResourceStatus string

const (
	ResourceAvailable   ResourceStatus = "disponible"
	ResourceLoaned      ResourceStatus = "prestado"
	ResourceDamaged     ResourceStatus = "dañado"
	ResourceMaintenance ResourceStatus = "mantenimiento"
)

type Resource struct {
	ID          string            `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string            `gorm:"size:200;not null" json:"name"`
	Brand       string            `gorm:"size:120" json:"brand"`
	Model       string            `gorm:"size:120" json:"model"`
	Status      ResourceStatus    `gorm:"size:20;not null;default:'disponible'" json:"status"`
	Stock       int               `gorm:"not null;default:1" json:"stock"` // always 1 for serialized items
	DamageNotes string            `gorm:"size:500" json:"damageNotes,omitempty"`
	CategoryID  string            `gorm:"type:uuid;index" json:"categoryId,omitempty"`
	Attributes  map[string]string `gorm:"serializer:json" json:"attributes,omitempty"`
	Notes       string            `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type Category struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:120;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Resource) TableName() string { return ResourceTable }
func (Category) TableName() string { return CategoryTable }
