// ABOUTME: Tests for the TUI model
// ABOUTME: Report toggling, fiera dialog choices and view routing
package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieracrm/app"
	"fieracrm/models"
	"fieracrm/store"
)

type stubExtractor struct {
	card models.ScannedCard
}

func (s *stubExtractor) Extract(ctx context.Context, image []byte) (models.ScannedCard, error) {
	return s.card, nil
}

func testClock() func() int64 {
	var t int64
	return func() int64 {
		t++
		return t
	}
}

func newTestModel(t *testing.T) (*Model, *app.Controller, *store.Memory) {
	t.Helper()

	memory := store.NewMemory(testClock())
	session, err := app.OpenSession(t.TempDir(), "brevetti")
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	require.NoError(t, session.Login("brevetti"))

	ctrl := app.NewController(memory.Contacts(), memory.Fieras(),
		&stubExtractor{}, session, zap.NewNop())
	require.NoError(t, ctrl.Start(context.Background()))

	return NewModel(ctrl), ctrl, memory
}

func TestAuthenticatedSessionSkipsLogin(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Equal(t, ViewList, m.viewMode)
}

func TestUnauthenticatedSessionStartsAtLogin(t *testing.T) {
	session, err := app.OpenSession(t.TempDir(), "brevetti")
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	memory := store.NewMemory(testClock())
	ctrl := app.NewController(memory.Contacts(), memory.Fieras(),
		&stubExtractor{}, session, zap.NewNop())

	m := NewModel(ctrl)
	assert.Equal(t, ViewLogin, m.viewMode)
}

func TestToggleReportItemCyclesInterest(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	require.NoError(t, ctrl.ProcessImage(context.Background(), []byte{1}))
	m.enterReview()
	m.reportPane = true
	m.reportRow = 0

	m.toggleReportItem()
	assert.Equal(t, models.InterestYes, ctrl.InFlight().Report.Products[0].Interest)

	m.toggleReportItem()
	assert.Equal(t, models.InterestNo, ctrl.InFlight().Report.Products[0].Interest)

	m.toggleReportItem()
	assert.Equal(t, models.InterestUnset, ctrl.InFlight().Report.Products[0].Interest)
}

func TestToggleReportItemFlipsLabels(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	require.NoError(t, ctrl.ProcessImage(context.Background(), []byte{1}))
	m.enterReview()
	m.reportPane = true
	m.reportRow = len(models.ProductCatalog) // first source label

	m.toggleReportItem()
	assert.True(t, models.HasLabel(ctrl.InFlight().Report.Sources, models.SourceCatalog[0]))

	m.toggleReportItem()
	assert.False(t, models.HasLabel(ctrl.InFlight().Report.Sources, models.SourceCatalog[0]))
}

func TestDeleteFieraDialogExcludesItself(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	target, err := ctrl.CreateFiera(context.Background(), "Da eliminare")
	require.NoError(t, err)
	other, err := ctrl.CreateFiera(context.Background(), "Altra")
	require.NoError(t, err)

	m.beginDeleteFiera(target)

	assert.Equal(t, ViewConfirmDeleteFiera, m.viewMode)
	assert.Equal(t, []string{"", other}, m.deleteMoveChoices,
		"detach first, then every other fiera")
	assert.Equal(t, "Da eliminare", m.deleteFieraName)
}

func TestDraftReviewIsImmediatelyEditable(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	require.NoError(t, ctrl.ProcessImage(context.Background(), []byte{1}))
	m.enterReview()

	assert.True(t, m.editable())
}

func TestExistingReviewOpensReadOnly(t *testing.T) {
	m, ctrl, memory := newTestModel(t)
	id, err := memory.Contacts().Create(context.Background(), models.Contact{FirstName: "Mario"})
	require.NoError(t, err)

	require.NoError(t, ctrl.OpenContact(id))
	m.enterReview()

	assert.False(t, m.editable())
	require.NoError(t, ctrl.BeginEdit())
	assert.True(t, m.editable())
}
