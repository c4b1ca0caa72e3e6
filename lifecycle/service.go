// Package lifecycle executes loan state transitions and the paired resource
// writes they require. The loan store and the resource store are updated by
// separate calls with no cross-store transaction; a failed resource-side write
// leaves drift behind on purpose, to be repaired by the reconcile package.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"school_resource_hub/cache"
	"school_resource_hub/models"
	"school_resource_hub/notify"

	"github.com/google/uuid"
)

// ResourceStore is the slice of the resource store the service writes through.
type ResourceStore interface {
	FindResourceByID(ctx context.Context, id string) (*models.Resource, error)
	UpdateResourceStatus(ctx context.Context, id string, status models.ResourceStatus, notes string) (*models.Resource, error)
}

// LoanStore is the slice of the loan store the service writes through.
type LoanStore interface {
	CreateLoan(ctx context.Context, l *models.Loan) error
	FindLoanByID(ctx context.Context, id string) (*models.Loan, error)
	SaveLoan(ctx context.Context, l *models.Loan) error
}

// Invalidator drops cache entries by key prefix.
type Invalidator interface {
	Invalidate(prefix string)
}

// Publisher announces store mutations; fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, entity, op string)
}

var (
	ErrInvalidTransition = errors.New("invalid loan status transition")
	ErrNoResources       = errors.New("loan must reference at least one resource")
	ErrUnknownStatus     = errors.New("unknown resource status")
)

// ConflictError reports the resource that blocked an activation.
type ConflictError struct {
	ResourceID   string
	ResourceName string
	Status       models.ResourceStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource %q (%s) is not available: %s", e.ResourceName, e.ResourceID, e.Status)
}

type Service struct {
	resources ResourceStore
	loans     LoanStore
	cache     Invalidator
	pub       Publisher
	log       *slog.Logger
	now       func() time.Time
}

func NewService(resources ResourceStore, loans LoanStore, c Invalidator, pub Publisher, log *slog.Logger) *Service {
	return &Service{
		resources: resources,
		loans:     loans,
		cache:     c,
		pub:       pub,
		log:       log,
		now:       time.Now,
	}
}

type CreateLoanInput struct {
	UserID         string
	Purpose        models.LoanPurpose
	PurposeDetails models.PurposeDetails
	Resources      []models.ResourceSnapshot
}

// Create registers a new loan. An admin's loan is activated on the spot:
// availability is validated first, the loan row is written active, and each
// referenced resource is then marked prestado best-effort. Any other role gets
// a pending loan and no resource writes.
func (s *Service) Create(ctx context.Context, in CreateLoanInput, role models.Role) (*models.Loan, error) {
	if in.UserID == "" {
		return nil, errors.New("loan requires a user")
	}
	if len(in.Resources) == 0 {
		return nil, ErrNoResources
	}
	if err := in.PurposeDetails.Validate(in.Purpose); err != nil {
		return nil, err
	}

	loan := &models.Loan{
		ID:             uuid.NewString(),
		UserID:         in.UserID,
		Purpose:        in.Purpose,
		PurposeDetails: in.PurposeDetails,
		Resources:      in.Resources,
		Status:         models.LoanPending,
	}

	if role == models.RoleAdmin {
		// Direct activation validates availability the same way approval
		// does, before anything is written.
		if err := s.checkAvailability(ctx, loan.Resources); err != nil {
			return nil, err
		}
		now := s.now()
		loan.Status = models.LoanActive
		loan.LoanDate = &now
		loan.ReturnDate = &now
	}

	if err := s.loans.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}

	if loan.Status == models.LoanActive {
		// Best-effort: the loan stays active even if a resource write fails
		// here; reconciliation repairs the drift later.
		s.markResourcesLoaned(ctx, loan)
		s.cache.Invalidate(cache.KeyResources)
	}
	s.cache.Invalidate(cache.KeyLoans)
	s.publish(ctx, notify.EntityLoans, "insert")
	return loan, nil
}

// TransitionStatus moves a loan to active, rejected or returned. Approval
// re-reads every referenced resource and refuses to activate while any of them
// is not disponible, leaving the loan pending.
func (s *Service) TransitionStatus(ctx context.Context, loanID string, target models.LoanStatus) (*models.Loan, error) {
	loan, err := s.loans.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, loan.Status, target)
	}

	switch target {
	case models.LoanActive:
		return s.approve(ctx, loan)
	case models.LoanRejected:
		return s.reject(ctx, loan)
	case models.LoanReturned:
		res, err := s.ProcessReturn(ctx, loanID, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		return res.Loan, nil
	default:
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, loan.Status, target)
	}
}

func (s *Service) approve(ctx context.Context, loan *models.Loan) (*models.Loan, error) {
	if loan.Status != models.LoanPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, loan.Status, models.LoanActive)
	}
	// The gap between this read and the writes below is the accepted race
	// window; a conflicting approval that slips through shows up in the next
	// reconciliation scan.
	if err := s.checkAvailability(ctx, loan.Resources); err != nil {
		return nil, err
	}

	now := s.now()
	loan.Status = models.LoanActive
	loan.LoanDate = &now
	if err := s.loans.SaveLoan(ctx, loan); err != nil {
		return nil, err
	}
	s.markResourcesLoaned(ctx, loan)

	s.cache.Invalidate(cache.KeyLoans)
	s.cache.Invalidate(cache.KeyResources)
	s.publish(ctx, notify.EntityLoans, "update")
	return loan, nil
}

func (s *Service) reject(ctx context.Context, loan *models.Loan) (*models.Loan, error) {
	if loan.Status != models.LoanPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, loan.Status, models.LoanRejected)
	}
	loan.Status = models.LoanRejected
	if err := s.loans.SaveLoan(ctx, loan); err != nil {
		return nil, err
	}
	// Resources were never marked prestado for a pending loan.
	s.cache.Invalidate(cache.KeyLoans)
	s.publish(ctx, notify.EntityLoans, "update")
	return loan, nil
}

// ReturnResult aggregates the per-resource outcomes of a return. Failures do
// not abort the remaining updates; the caller decides what to surface.
type ReturnResult struct {
	Loan             *models.Loan
	UpdatedResources []models.Resource
	Errors           []error
}

// ProcessReturn closes out an active loan: the loan row is stamped returned
// with the reports persisted verbatim, then every resource on the snapshot
// list is moved to dañado (when its damage report is flagged) or disponible,
// independently of one another.
func (s *Service) ProcessReturn(
	ctx context.Context,
	loanID string,
	damage map[string]models.DamageReport,
	suggestions map[string]models.SuggestionReport,
	missing []models.MissingResource,
) (*ReturnResult, error) {
	loan, err := s.loans.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanActive {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, loan.Status, models.LoanReturned)
	}

	now := s.now()
	loan.Status = models.LoanReturned
	loan.ReturnDate = &now
	loan.DamageReports = damage
	loan.SuggestionReports = suggestions
	loan.MissingResources = missing
	if err := s.loans.SaveLoan(ctx, loan); err != nil {
		return nil, err
	}

	result := &ReturnResult{Loan: loan}
	for _, snap := range loan.Resources {
		target := models.ResourceAvailable
		notes := ""
		if rep, ok := damage[snap.ID]; ok && rep.Flagged() {
			target = models.ResourceDamaged
			notes = rep.Notes
		}
		res, err := s.resources.UpdateResourceStatus(ctx, snap.ID, target, notes)
		if err != nil {
			s.log.Warn("return: resource update failed", "loan", loan.ID, "resource", snap.ID, "err", err)
			result.Errors = append(result.Errors, fmt.Errorf("resource %s: %w", snap.ID, err))
			continue
		}
		result.UpdatedResources = append(result.UpdatedResources, *res)
	}

	s.cache.Invalidate(cache.KeyLoans)
	s.cache.Invalidate(cache.KeyResources)
	s.publish(ctx, notify.EntityLoans, "update")
	s.publish(ctx, notify.EntityResources, "update")
	return result, nil
}

// UpdateResourceStatus drives the loan-independent admin path:
// dañado -> mantenimiento -> disponible/dañado.
func (s *Service) UpdateResourceStatus(ctx context.Context, resourceID string, status models.ResourceStatus, notes string) (*models.Resource, error) {
	switch status {
	case models.ResourceMaintenance, models.ResourceDamaged, models.ResourceAvailable:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatus, status)
	}
	res, err := s.resources.UpdateResourceStatus(ctx, resourceID, status, notes)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cache.KeyResources)
	s.publish(ctx, notify.EntityResources, "update")
	return res, nil
}

// checkAvailability re-reads every snapshot's resource and returns a
// ConflictError for the first one not disponible.
func (s *Service) checkAvailability(ctx context.Context, snaps []models.ResourceSnapshot) error {
	for _, snap := range snaps {
		res, err := s.resources.FindResourceByID(ctx, snap.ID)
		if err != nil {
			return fmt.Errorf("resource %s: %w", snap.ID, err)
		}
		if res.Status != models.ResourceAvailable {
			return &ConflictError{ResourceID: res.ID, ResourceName: res.Name, Status: res.Status}
		}
	}
	return nil
}

func (s *Service) markResourcesLoaned(ctx context.Context, loan *models.Loan) {
	for _, snap := range loan.Resources {
		if _, err := s.resources.UpdateResourceStatus(ctx, snap.ID, models.ResourceLoaned, ""); err != nil {
			s.log.Warn("activation: resource not marked prestado", "loan", loan.ID, "resource", snap.ID, "err", err)
		}
	}
}

func (s *Service) publish(ctx context.Context, entity, op string) {
	if s.pub != nil {
		s.pub.Publish(ctx, entity, op)
	}
}
