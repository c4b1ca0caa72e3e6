package models

import "time"

const ReservationTable = "srh_reservations"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation blocks a resource for a time window ahead of an eventual loan.
type Reservation struct {
	ID         string            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string            `gorm:"type:uuid;index;not null" json:"userId"`
	ResourceID string            `gorm:"type:uuid;index;not null" json:"resourceId"`
	StartsAt   time.Time         `gorm:"index;not null" json:"startsAt"`
	EndsAt     time.Time         `gorm:"not null" json:"endsAt"`
	Status     ReservationStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	Notes      string            `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func (Reservation) TableName() string { return ReservationTable }
