// Package reconcile detects and repairs drift between the loan store and the
// resource store. Loans are the source of truth for "this item is out": a
// resource referenced by an active loan must be prestado, a prestado resource
// must be referenced by an active loan.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"school_resource_hub/cache"
	"school_resource_hub/models"
	"school_resource_hub/notify"
)

type LoanStore interface {
	ListLoansByStatus(ctx context.Context, status models.LoanStatus) ([]models.Loan, error)
}

type ResourceStore interface {
	FindResourceByID(ctx context.Context, id string) (*models.Resource, error)
	ListResourcesByStatus(ctx context.Context, status models.ResourceStatus) ([]models.Resource, error)
	UpdateResourceStatus(ctx context.Context, id string, status models.ResourceStatus, notes string) (*models.Resource, error)
}

// CategoryNamer resolves category ids to display names for the report.
// Optional; findings fall back to the raw id.
type CategoryNamer interface {
	FindCategoryByID(ctx context.Context, id string) (*models.Category, error)
}

type Invalidator interface {
	Invalidate(prefix string)
}

type Publisher interface {
	Publish(ctx context.Context, entity, op string)
}

// Report field names are the external contract consumed by the admin panel;
// they keep the original Spanish keys.

type ActiveLoanFinding struct {
	LoanID              string   `json:"loanId"`
	LoanUser            string   `json:"loanUser"`
	RecursosNoPrestados []string `json:"recursosNoPrestados"`
}

type OrphanResourceFinding struct {
	ResourceID   string `json:"resourceId"`
	ResourceName string `json:"resourceName"`
	Category     string `json:"category"`
}

type DiagnosticReport struct {
	PrestamosActivosSinRecursosPrestados []ActiveLoanFinding     `json:"prestamosActivosSinRecursosPrestados"`
	RecursosPrestadosSinPrestamosActivos []OrphanResourceFinding `json:"recursosPrestadosSinPrestamosActivos"`
	TotalInconsistencies                 int                     `json:"totalInconsistencies"`
}

type FixReport struct {
	RecursosCorregidos int      `json:"recursosCorregidos"`
	Errors             []string `json:"errors"`
}

type Engine struct {
	loans      LoanStore
	resources  ResourceStore
	categories CategoryNamer
	cache      Invalidator
	pub        Publisher
	log        *slog.Logger
}

func NewEngine(loans LoanStore, resources ResourceStore, categories CategoryNamer, c Invalidator, pub Publisher, log *slog.Logger) *Engine {
	return &Engine{
		loans:      loans,
		resources:  resources,
		categories: categories,
		cache:      c,
		pub:        pub,
		log:        log,
	}
}

// Diagnose is a pure read-side scan of both stores; nothing is written.
func (e *Engine) Diagnose(ctx context.Context) (*DiagnosticReport, error) {
	report := &DiagnosticReport{
		PrestamosActivosSinRecursosPrestados: []ActiveLoanFinding{},
		RecursosPrestadosSinPrestamosActivos: []OrphanResourceFinding{},
	}

	active, err := e.loans.ListLoansByStatus(ctx, models.LoanActive)
	if err != nil {
		return nil, fmt.Errorf("listing active loans: %w", err)
	}

	// A: active loan carrying a resource that is not marked prestado.
	for _, loan := range active {
		var unmarked []string
		for _, snap := range loan.Resources {
			res, err := e.resources.FindResourceByID(ctx, snap.ID)
			if err != nil {
				// An unreadable row must not disable the whole scan. Count
				// it as unmarked so Fix still attempts a correction; if the
				// row really is gone, that write lands in Fix's error list.
				e.log.Warn("diagnose: resource read failed", "loan", loan.ID, "resource", snap.ID, "err", err)
				unmarked = append(unmarked, snap.ID)
				continue
			}
			if res.Status != models.ResourceLoaned {
				unmarked = append(unmarked, res.ID)
			}
		}
		if len(unmarked) > 0 {
			report.PrestamosActivosSinRecursosPrestados = append(report.PrestamosActivosSinRecursosPrestados, ActiveLoanFinding{
				LoanID:              loan.ID,
				LoanUser:            loan.UserID,
				RecursosNoPrestados: unmarked,
			})
			report.TotalInconsistencies += len(unmarked)
		}
	}

	// B: prestado resource with no active loan referencing it.
	loaned, err := e.resources.ListResourcesByStatus(ctx, models.ResourceLoaned)
	if err != nil {
		return nil, fmt.Errorf("listing loaned resources: %w", err)
	}
	for _, res := range loaned {
		if referencedByAny(active, res.ID) {
			continue
		}
		report.RecursosPrestadosSinPrestamosActivos = append(report.RecursosPrestadosSinPrestamosActivos, OrphanResourceFinding{
			ResourceID:   res.ID,
			ResourceName: res.Name,
			Category:     e.categoryName(ctx, res.CategoryID),
		})
		report.TotalInconsistencies++
	}

	return report, nil
}

// Fix applies corrective writes for every finding: unmarked resources on
// active loans become prestado, orphaned prestado resources become disponible.
// Each write is attempted independently; failures are collected, never fatal.
// With no intervening mutations a second Fix corrects nothing.
func (e *Engine) Fix(ctx context.Context) (*FixReport, error) {
	report, err := e.Diagnose(ctx)
	if err != nil {
		return nil, err
	}

	fix := &FixReport{Errors: []string{}}

	for _, finding := range report.PrestamosActivosSinRecursosPrestados {
		for _, resourceID := range finding.RecursosNoPrestados {
			if _, err := e.resources.UpdateResourceStatus(ctx, resourceID, models.ResourceLoaned, ""); err != nil {
				fix.Errors = append(fix.Errors, fmt.Sprintf("resource %s: %v", resourceID, err))
				continue
			}
			e.log.Info("reconcile: resource marked prestado", "resource", resourceID, "loan", finding.LoanID)
			fix.RecursosCorregidos++
		}
	}

	for _, finding := range report.RecursosPrestadosSinPrestamosActivos {
		if _, err := e.resources.UpdateResourceStatus(ctx, finding.ResourceID, models.ResourceAvailable, ""); err != nil {
			fix.Errors = append(fix.Errors, fmt.Sprintf("resource %s: %v", finding.ResourceID, err))
			continue
		}
		e.log.Info("reconcile: orphaned resource released", "resource", finding.ResourceID)
		fix.RecursosCorregidos++
	}

	if fix.RecursosCorregidos > 0 {
		e.cache.Invalidate(cache.KeyResources)
		if e.pub != nil {
			e.pub.Publish(ctx, notify.EntityResources, "update")
		}
	}
	return fix, nil
}

// RunEvery runs Fix on a fixed interval until ctx is cancelled. Scheduled runs
// log their outcome instead of returning it.
func (e *Engine) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fix, err := e.Fix(ctx)
			if err != nil {
				e.log.Error("scheduled reconciliation failed", "err", err)
				continue
			}
			if fix.RecursosCorregidos > 0 || len(fix.Errors) > 0 {
				e.log.Info("scheduled reconciliation",
					"corrected", fix.RecursosCorregidos, "errors", len(fix.Errors))
			}
		}
	}
}

func referencedByAny(loans []models.Loan, resourceID string) bool {
	for i := range loans {
		if loans[i].References(resourceID) {
			return true
		}
	}
	return false
}

func (e *Engine) categoryName(ctx context.Context, categoryID string) string {
	if categoryID == "" {
		return ""
	}
	if e.categories != nil {
		if cat, err := e.categories.FindCategoryByID(ctx, categoryID); err == nil {
			return cat.Name
		}
	}
	return categoryID
}
