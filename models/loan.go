// models/loan.go
package models

import (
	"errors"
	"time"
)

const LoanTable = "srh_loans"

type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned" // terminal
	LoanRejected LoanStatus = "rejected" // terminal
)

type LoanPurpose string

const (
	PurposeLearning      LoanPurpose = "learning"
	PurposeInstitutional LoanPurpose = "institutional"
)

// PurposeDetails is the tagged payload behind Loan.Purpose. Exactly one
// variant's fields are required, selected by the purpose tag.
type PurposeDetails struct {
	// learning
	Grade string `json:"grade,omitempty"`
	Area  string `json:"area,omitempty"`
	Topic string `json:"topic,omitempty"`
	// institutional
	Activity string `json:"activity,omitempty"`
	Location string `json:"location,omitempty"`
}

var ErrBadPurpose = errors.New("unknown loan purpose")

func (d PurposeDetails) Validate(p LoanPurpose) error {
	switch p {
	case PurposeLearning:
		if d.Grade == "" || d.Area == "" {
			return errors.New("learning loan requires grade and area")
		}
	case PurposeInstitutional:
		if d.Activity == "" {
			return errors.New("institutional loan requires activity")
		}
	default:
		return ErrBadPurpose
	}
	return nil
}

// ResourceSnapshot is a denormalized copy of the resource's identifying fields
// taken at loan creation. It never tracks later edits to the resource row.
type ResourceSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand,omitempty"`
}

// DamageReport is filled in at return time, one per resource id.
type DamageReport struct {
	CommonProblems []string `json:"commonProblems,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Flagged reports whether the resource came back damaged: at least one
// checked common problem or a non-empty free-text note.
func (r DamageReport) Flagged() bool {
	return len(r.CommonProblems) > 0 || r.Notes != ""
}

type SuggestionReport struct {
	Notes string `json:"notes"`
}

type MissingResource struct {
	ResourceID string    `json:"resourceId"`
	ReportDate time.Time `json:"reportDate"`
	Notes      string    `json:"notes,omitempty"`
}

type Loan struct {
	ID             string             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string             `gorm:"type:uuid;index;not null" json:"userId"`
	Purpose        LoanPurpose        `gorm:"size:20;not null" json:"purpose"`
	PurposeDetails PurposeDetails     `gorm:"serializer:json" json:"purposeDetails"`
	LoanDate       *time.Time         `json:"loanDate,omitempty"`
	ReturnDate     *time.Time         `json:"returnDate,omitempty"`
	Status         LoanStatus         `gorm:"size:20;index;not null;default:'pending'" json:"status"`

	Resources         []ResourceSnapshot          `gorm:"serializer:json" json:"resources"`
	DamageReports     map[string]DamageReport     `gorm:"serializer:json" json:"damageReports,omitempty"`
	SuggestionReports map[string]SuggestionReport `gorm:"serializer:json" json:"suggestionReports,omitempty"`
	MissingResources  []MissingResource           `gorm:"serializer:json" json:"missingResources,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Loan) TableName() string { return LoanTable }

// References reports whether the loan's snapshot list carries the resource id.
func (l *Loan) References(resourceID string) bool {
	for _, s := range l.Resources {
		if s.ID == resourceID {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s LoanStatus) Terminal() bool { return s == LoanReturned || s == LoanRejected }
