package workflow_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thierry1804/toa-permit/internal/model"
	"github.com/thierry1804/toa-permit/internal/repository"
	"github.com/thierry1804/toa-permit/internal/workflow"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	prestataire = workflow.Actor{Name: "rakoto", Role: workflow.RolePrestataire}
	chef        = workflow.Actor{Name: "chef.andry", Role: workflow.RoleChefProjet}
	hse         = workflow.Actor{Name: "hse.miora", Role: workflow.RoleHSE}
	admin       = workflow.Actor{Name: "admin.fy", Role: workflow.RoleAdmin}
)

func newTestEngine(t *testing.T) (*workflow.Engine, repository.PermitRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PermitModel{}, &model.SequenceModel{}))
	repo := repository.NewPermitRepository(db)
	return workflow.NewEngine(repo), repo
}

func seedPermit(t *testing.T, repo repository.PermitRepository, id, category, status string) *model.PermitModel {
	t.Helper()
	now := time.Now()
	p := &model.PermitModel{
		ID:          id,
		Category:    category,
		Number:      fmt.Sprintf("%s-20251013-001", model.NumberPrefixes[category]),
		Status:      status,
		SubmittedBy: "rakoto",
		Title:       "Maintenance antenne",
		SiteCode:    "ANT-001",
		StartDate:   now,
		EndDate:     now.Add(72 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Create(p))
	return p
}

// TestFullApprovalFlow walks a permit from draft to closed.
func TestFullApprovalFlow(t *testing.T) {
	engine, repo := newTestEngine(t)
	seedPermit(t, repo, "p-1", model.CategoryHauteur, string(workflow.StatusDraft))

	p, err := engine.Submit("p-1", prestataire)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusPendingChef), p.Status)

	p, err = engine.ValidateByChef("p-1", chef, "ok pour moi")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusPendingHSE), p.Status)
	assert.Equal(t, "chef.andry", p.ChefName)
	assert.NotNil(t, p.ChefDate)
	assert.Empty(t, p.Reference)

	p, err = engine.ValidateByHSE("p-1", hse, "conforme")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusValidated), p.Status)
	assert.Equal(t, "hse.miora", p.HSEName)
	year := time.Now().Year()
	assert.Equal(t, workflow.FormatReference(year, 1), p.Reference)

	p, err = engine.Start("p-1", prestataire)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusInProgress), p.Status)
	assert.Equal(t, "rakoto", p.StartedBy)

	p, err = engine.Close("p-1", prestataire, "travaux terminés")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusClosed), p.Status)
	assert.Equal(t, "travaux terminés", p.ClosureComment)

	// Closed is terminal.
	_, err = engine.Start("p-1", prestataire)
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
	_, err = engine.Close("p-1", prestataire, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

// TestReferenceSharedAcrossCategories checks that all categories draw
// from the same yearly sequence.
func TestReferenceSharedAcrossCategories(t *testing.T) {
	engine, repo := newTestEngine(t)
	year := time.Now().Year()

	categories := []string{model.CategoryGeneral, model.CategoryHauteur, model.CategoryElectrique, model.CategoryPlanPrevention}
	for i, category := range categories {
		id := fmt.Sprintf("p-%d", i)
		seedPermit(t, repo, id, category, string(workflow.StatusDraft))
		_, err := engine.Submit(id, prestataire)
		require.NoError(t, err)
		_, err = engine.ValidateByChef(id, chef, "")
		require.NoError(t, err)
		p, err := engine.ValidateByHSE(id, hse, "")
		require.NoError(t, err)
		assert.Equal(t, workflow.FormatReference(year, int64(i+1)), p.Reference)
	}
}

// TestValidateChefRequiresRole checks first-stage role enforcement.
func TestValidateChefRequiresRole(t *testing.T) {
	engine, repo := newTestEngine(t)
	seedPermit(t, repo, "p-1", model.CategoryGeneral, string(workflow.StatusPendingChef))

	_, err := engine.ValidateByChef("p-1", prestataire, "")
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	_, err = engine.ValidateByChef("p-1", hse, "")
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	// Admin substitutes for either approver.
	p, err := engine.ValidateByChef("p-1", admin, "")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusPendingHSE), p.Status)
}

// TestValidateHSERequiresRole checks final-stage role enforcement.
func TestValidateHSERequiresRole(t *testing.T) {
	engine, repo := newTestEngine(t)
	seedPermit(t, repo, "p-1", model.CategoryGeneral, string(workflow.StatusPendingHSE))

	_, err := engine.ValidateByHSE("p-1", chef, "")
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	p, err := engine.ValidateByHSE("p-1", admin, "")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusValidated), p.Status)
}

// TestValidateOutOfOrder checks that stages cannot be skipped.
func TestValidateOutOfOrder(t *testing.T) {
	engine, repo := newTestEngine(t)
	seedPermit(t, repo, "p-1", model.CategoryGeneral, string(workflow.StatusDraft))

	_, err := engine.ValidateByChef("p-1", chef, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
	_, err = engine.ValidateByHSE("p-1", hse, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidState)

	// Double submit is also refused.
	_, err = engine.Submit("p-1", prestataire)
	require.NoError(t, err)
	_, err = engine.Submit("p-1", prestataire)
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

// TestRejectRequiresReason checks that rejection keeps a reason.
func TestRejectRequiresReason(t *testing.T) {
	engine, repo := newTestEngine(t)
	seedPermit(t, repo, "p-1", model.CategoryGeneral, string(workflow.StatusPendingChef))

	_, err := engine.Reject("p-1", chef, "")
	assert.ErrorIs(t, err, workflow.ErrEmptyReason)
	_, err = engine.Reject("p-1", chef, "   ")
	assert.ErrorIs(t, err, workflow.ErrEmptyReason)

	p, err := engine.Reject("p-1", chef, "plan de levage manquant")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusRejected), p.Status)
	assert.Equal(t, "chef.andry", p.RejectedBy)
	assert.Empty(t, p.Reference)

	// Rejected is terminal, no resubmission.
	_, err = engine.Submit("p-1", prestataire)
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

// TestRejectStageRoles checks that the rejecting role must match the
// pending stage.
func TestRejectStageRoles(t *testing.T) {
	engine, repo := newTestEngine(t)
	seedPermit(t, repo, "p-1", model.CategoryGeneral, string(workflow.StatusPendingHSE))

	_, err := engine.Reject("p-1", chef, "trop risqué")
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	_, err = engine.Reject("p-1", hse, "trop risqué")
	require.NoError(t, err)

	// Draft and validated records cannot be rejected.
	seedPermit(t, repo, "p-2", model.CategoryGeneral, string(workflow.StatusValidated))
	_, err = engine.Reject("p-2", hse, "raison")
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

// TestExpire checks expiry from both active statuses.
func TestExpire(t *testing.T) {
	engine, repo := newTestEngine(t)
	seedPermit(t, repo, "p-1", model.CategoryGeneral, string(workflow.StatusValidated))
	seedPermit(t, repo, "p-2", model.CategoryGeneral, string(workflow.StatusInProgress))
	seedPermit(t, repo, "p-3", model.CategoryGeneral, string(workflow.StatusDraft))

	p, err := engine.Expire("p-1")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusExpired), p.Status)
	assert.NotNil(t, p.ExpiredAt)

	_, err = engine.Expire("p-2")
	require.NoError(t, err)

	_, err = engine.Expire("p-3")
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

// TestCloseFromValidated checks closing without ever starting.
func TestCloseFromValidated(t *testing.T) {
	engine, repo := newTestEngine(t)
	seedPermit(t, repo, "p-1", model.CategoryGeneral, string(workflow.StatusValidated))

	p, err := engine.Close("p-1", prestataire, "")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusClosed), p.Status)
	assert.Nil(t, p.StartedAt)
}

// TestAnonymousActorRefused checks that every command needs an identity.
func TestAnonymousActorRefused(t *testing.T) {
	engine, repo := newTestEngine(t)
	seedPermit(t, repo, "p-1", model.CategoryGeneral, string(workflow.StatusDraft))

	_, err := engine.Submit("p-1", workflow.Actor{})
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	_, err = engine.Close("p-1", workflow.Actor{Name: "  "}, "")
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)
}

// TestUnknownPermit checks the not-found mapping.
func TestUnknownPermit(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Submit("missing", prestataire)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
	_, err = engine.Expire("missing")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}
