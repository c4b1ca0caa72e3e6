package models

import "time"

const TransitionLogTable = "srh_transition_log"

// TransitionLog is the audit trail behind the admin history view: one row per
// loan transition or reconciliation repair.
type TransitionLog struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LoanID    *string   `gorm:"type:uuid;index" json:"loanId,omitempty"`
	ActorID   string    `gorm:"type:uuid" json:"actorId"`
	Action    string    `gorm:"size:40;not null" json:"action"` // create/approve/reject/return/fix
	Detail    string    `gorm:"size:255" json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (TransitionLog) TableName() string { return TransitionLogTable }
