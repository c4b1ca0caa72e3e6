package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"school_resource_hub/cache"
	"school_resource_hub/db"
	"school_resource_hub/lifecycle"
	"school_resource_hub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store  *db.MemStore
	cache  *cache.Cache
	svc    *lifecycle.Service
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := db.NewMemStore()
	c := cache.New(32)
	return &fixture{
		store:  store,
		cache:  c,
		svc:    lifecycle.NewService(store, store, c, nil, discardLogger()),
		engine: NewEngine(store, store, nil, c, nil, discardLogger()),
	}
}

func (f *fixture) adminLoan(t *testing.T, userID string, resourceIDs ...string) *models.Loan {
	t.Helper()
	snaps := make([]models.ResourceSnapshot, 0, len(resourceIDs))
	for _, id := range resourceIDs {
		snaps = append(snaps, models.ResourceSnapshot{ID: id, Name: "Recurso " + id})
	}
	loan, err := f.svc.Create(context.Background(), lifecycle.CreateLoanInput{
		UserID:         userID,
		Purpose:        models.PurposeInstitutional,
		PurposeDetails: models.PurposeDetails{Activity: "acto civico"},
		Resources:      snaps,
	}, models.RoleAdmin)
	require.NoError(t, err)
	return loan
}

func (f *fixture) forceStatus(id string, status models.ResourceStatus) {
	res, _ := f.store.FindResourceByID(context.Background(), id)
	res.Status = status
	f.store.PutResource(*res)
}

func TestDiagnoseCleanState(t *testing.T) {
	f := newFixture(t)
	f.store.PutResource(models.Resource{ID: "r1", Name: "Laptop", Status: models.ResourceAvailable})
	f.adminLoan(t, "admin1", "r1")

	report, err := f.engine.Diagnose(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.TotalInconsistencies)
	assert.Empty(t, report.PrestamosActivosSinRecursosPrestados)
	assert.Empty(t, report.RecursosPrestadosSinPrestamosActivos)
}

func TestDriftDetectionAndRepair(t *testing.T) {
	f := newFixture(t)
	f.store.PutResource(models.Resource{ID: "r1", Name: "Laptop", Status: models.ResourceAvailable})
	loan := f.adminLoan(t, "admin1", "r1")

	// Simulate drift: someone edited the resource row out-of-band.
	f.forceStatus("r1", models.ResourceAvailable)

	report, err := f.engine.Diagnose(context.Background())
	require.NoError(t, err)
	require.Len(t, report.PrestamosActivosSinRecursosPrestados, 1)
	finding := report.PrestamosActivosSinRecursosPrestados[0]
	assert.Equal(t, loan.ID, finding.LoanID)
	assert.Equal(t, "admin1", finding.LoanUser)
	assert.Equal(t, []string{"r1"}, finding.RecursosNoPrestados)
	assert.Equal(t, 1, report.TotalInconsistencies)

	fix, err := f.engine.Fix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fix.RecursosCorregidos)
	assert.Empty(t, fix.Errors)

	res, _ := f.store.FindResourceByID(context.Background(), "r1")
	assert.Equal(t, models.ResourceLoaned, res.Status, "loans are the source of truth for prestado")
}

func TestOrphanedResourceReleased(t *testing.T) {
	f := newFixture(t)
	f.store.PutResource(models.Resource{
		ID: "r9", Name: "Microscopio", Status: models.ResourceLoaned, CategoryID: "cat1",
	})

	report, err := f.engine.Diagnose(context.Background())
	require.NoError(t, err)
	require.Len(t, report.RecursosPrestadosSinPrestamosActivos, 1)
	finding := report.RecursosPrestadosSinPrestamosActivos[0]
	assert.Equal(t, "r9", finding.ResourceID)
	assert.Equal(t, "Microscopio", finding.ResourceName)
	assert.Equal(t, "cat1", finding.Category, "falls back to raw id without a resolver")

	fix, err := f.engine.Fix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fix.RecursosCorregidos)

	res, _ := f.store.FindResourceByID(context.Background(), "r9")
	assert.Equal(t, models.ResourceAvailable, res.Status)
}

func TestFixIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.store.PutResource(models.Resource{ID: "r1", Name: "Laptop", Status: models.ResourceAvailable})
	f.store.PutResource(models.Resource{ID: "r2", Name: "Tablet", Status: models.ResourceLoaned})
	f.adminLoan(t, "admin1", "r1")
	f.forceStatus("r1", models.ResourceAvailable)

	first, err := f.engine.Fix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.RecursosCorregidos)

	second, err := f.engine.Fix(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.RecursosCorregidos)
	assert.Empty(t, second.Errors)

	report, err := f.engine.Diagnose(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.TotalInconsistencies)
}

func TestFixCollectsPerResourceErrors(t *testing.T) {
	f := newFixture(t)
	f.store.PutResource(models.Resource{ID: "r1", Name: "Laptop", Status: models.ResourceAvailable})
	f.store.PutResource(models.Resource{ID: "r2", Name: "Tablet", Status: models.ResourceAvailable})
	f.adminLoan(t, "admin1", "r1", "r2")
	f.forceStatus("r1", models.ResourceAvailable)
	f.forceStatus("r2", models.ResourceAvailable)

	f.store.FailResourceWrite = map[string]error{"r1": errors.New("timeout")}

	fix, err := f.engine.Fix(context.Background())
	require.NoError(t, err, "per-resource failure must not fail the run")
	assert.Equal(t, 1, fix.RecursosCorregidos)
	require.Len(t, fix.Errors, 1)
	assert.Contains(t, fix.Errors[0], "r1")

	r2, _ := f.store.FindResourceByID(context.Background(), "r2")
	assert.Equal(t, models.ResourceLoaned, r2.Status)
}

// A row the scan cannot read (deleted out-of-band while an active loan still
// references it) must not disable detection or repair of unrelated resources.
func TestScanSurvivesUnreadableResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutResource(models.Resource{ID: "r-orphan", Name: "Proyector", Status: models.ResourceLoaned})

	loan := models.Loan{
		ID:        "l1",
		UserID:    "admin1",
		Purpose:   models.PurposeInstitutional,
		Status:    models.LoanActive,
		Resources: []models.ResourceSnapshot{{ID: "r-gone", Name: "Recurso r-gone"}},
	}
	require.NoError(t, f.store.CreateLoan(ctx, &loan))

	report, err := f.engine.Diagnose(ctx)
	require.NoError(t, err, "one unreadable row must not abort the scan")
	require.Len(t, report.PrestamosActivosSinRecursosPrestados, 1)
	assert.Equal(t, []string{"r-gone"}, report.PrestamosActivosSinRecursosPrestados[0].RecursosNoPrestados)
	require.Len(t, report.RecursosPrestadosSinPrestamosActivos, 1)

	fix, err := f.engine.Fix(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fix.RecursosCorregidos, "the orphan is still released")
	require.Len(t, fix.Errors, 1)
	assert.Contains(t, fix.Errors[0], "r-gone")

	res, _ := f.store.FindResourceByID(ctx, "r-orphan")
	assert.Equal(t, models.ResourceAvailable, res.Status)
}

// Whatever sequence of transitions ran, a final Fix restores the invariant:
// status == prestado iff some active loan references the resource.
func TestInvariantHoldsAfterFix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		f.store.PutResource(models.Resource{ID: id, Name: "Recurso " + id, Status: models.ResourceAvailable})
	}

	l1 := f.adminLoan(t, "admin1", "r1", "r2")
	f.adminLoan(t, "admin1", "r3")

	_, err := f.svc.ProcessReturn(ctx, l1.ID, map[string]models.DamageReport{
		"r1": {CommonProblems: []string{"golpeado"}},
	}, nil, nil)
	require.NoError(t, err)

	// Inject drift both ways.
	f.forceStatus("r3", models.ResourceAvailable)
	f.forceStatus("r4", models.ResourceLoaned)

	_, err = f.engine.Fix(ctx)
	require.NoError(t, err)

	active, err := f.store.ListLoansByStatus(ctx, models.LoanActive)
	require.NoError(t, err)
	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		res, err := f.store.FindResourceByID(ctx, id)
		require.NoError(t, err)
		referenced := false
		for i := range active {
			if active[i].References(id) {
				referenced = true
			}
		}
		assert.Equal(t, referenced, res.Status == models.ResourceLoaned,
			"invariant violated for %s (status %s)", id, res.Status)
	}
}

func TestFixInvalidatesResourceCache(t *testing.T) {
	f := newFixture(t)
	f.store.PutResource(models.Resource{ID: "r1", Name: "Laptop", Status: models.ResourceLoaned})
	f.cache.Set("resources:all", "stale", 0)

	_, err := f.engine.Fix(context.Background())
	require.NoError(t, err)
	assert.False(t, f.cache.Has("resources:all"))
}
