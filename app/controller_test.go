// ABOUTME: Tests for the application state controller
// ABOUTME: Capture/extraction flow, review/edit lifecycle, filtering, logout teardown
package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieracrm/models"
	"fieracrm/ocr"
)

func TestStartRequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Logout())

	err := f.ctrl.Start(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSubscriptionFillsCache(t *testing.T) {
	f := newFixture(t)

	f.seedContact(t, models.Contact{FirstName: "Mario"})
	f.seedFiera(t, "SPS Parma")

	require.Len(t, f.ctrl.Contacts(), 1)
	require.Len(t, f.ctrl.Fieras(), 1)
	assert.Equal(t, "SPS Parma", f.ctrl.Fieras()[0].Name)
}

func TestProcessImageProducesDraft(t *testing.T) {
	f := newFixture(t)
	f.extractor.card = models.ScannedCard{FirstName: "Anna", Company: "Beta Srl"}

	require.NoError(t, f.ctrl.BeginCapture())
	require.NoError(t, f.ctrl.ProcessImage(context.Background(), []byte{1}))

	assert.Equal(t, StateReviewing, f.ctrl.State())
	assert.False(t, f.ctrl.ReviewingExisting())

	draft := f.ctrl.InFlight()
	require.NotNil(t, draft)
	assert.True(t, draft.IsDraft())
	assert.Equal(t, "Anna", draft.FirstName)
	require.NotNil(t, draft.Report, "a fresh draft carries an empty visit report")
}

func TestProcessImageAssignsActiveFiera(t *testing.T) {
	f := newFixture(t)
	fieraID := f.seedFiera(t, "Hannover Messe")
	f.ctrl.SetActiveFiera(fieraID)

	require.NoError(t, f.ctrl.ProcessImage(context.Background(), []byte{1}))

	draft := f.ctrl.InFlight()
	require.NotNil(t, draft)
	assert.Equal(t, fieraID, draft.FieraID)
}

func TestProcessImageFailureSurfacesError(t *testing.T) {
	f := newFixture(t)
	f.extractor.err = &ocr.ExtractionError{Reason: "no payload in response"}

	err := f.ctrl.ProcessImage(context.Background(), []byte{1})
	require.Error(t, err)

	// Back to idle with a user-visible message; no blank record left
	assert.Equal(t, StateIdle, f.ctrl.State())
	assert.Nil(t, f.ctrl.InFlight())
	assert.Equal(t, msgExtractionFailed, f.ctrl.LastError())
}

func TestCancelCaptureDiscardsLateResult(t *testing.T) {
	f := newFixture(t)
	f.extractor.card = models.ScannedCard{FirstName: "Tardiva"}

	require.NoError(t, f.ctrl.BeginCapture())

	// Simulate navigating away while the OCR request is in flight:
	// the state leaves Extracting before Extract returns.
	started := make(chan struct{})
	f.extractor.onExtract = func() {
		close(started)
		f.ctrl.CancelCapture()
	}

	require.NoError(t, f.ctrl.ProcessImage(context.Background(), []byte{1}))
	<-started

	assert.Equal(t, StateIdle, f.ctrl.State())
	assert.Nil(t, f.ctrl.InFlight(), "result of an abandoned capture is discarded")
}

func TestOpenContactReviewsExisting(t *testing.T) {
	f := newFixture(t)
	id := f.seedContact(t, models.Contact{FirstName: "Mario", LastName: "Rossi"})

	require.NoError(t, f.ctrl.OpenContact(id))

	assert.Equal(t, StateReviewing, f.ctrl.State())
	assert.True(t, f.ctrl.ReviewingExisting())
	record := f.ctrl.InFlight()
	require.NotNil(t, record)
	assert.Equal(t, id, record.ID)
	require.NotNil(t, record.Report, "legacy records without a report get an empty one")
}

func TestOpenContactUnknownID(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.ctrl.OpenContact("ghost"))
}

func TestCancelEditRestoresSnapshot(t *testing.T) {
	f := newFixture(t)
	id := f.seedContact(t, models.Contact{FirstName: "Mario", Report: models.NewVisitReport()})

	require.NoError(t, f.ctrl.OpenContact(id))
	require.NoError(t, f.ctrl.BeginEdit())
	require.NoError(t, f.ctrl.UpdateInFlight(func(c *models.Contact) {
		c.FirstName = "Sbagliato"
		c.Report.Products[0].Interest = models.InterestNo
	}))

	require.NoError(t, f.ctrl.CancelEdit())

	assert.Equal(t, StateReviewing, f.ctrl.State())
	record := f.ctrl.InFlight()
	require.NotNil(t, record)
	assert.Equal(t, "Mario", record.FirstName, "pre-edit snapshot restored exactly")
	assert.Equal(t, models.InterestUnset, record.Report.Products[0].Interest)
}

func TestDraftHasNoCancelEditPath(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.ProcessImage(context.Background(), []byte{1}))
	require.NoError(t, f.ctrl.BeginEdit())

	assert.Error(t, f.ctrl.CancelEdit(), "a draft can only be discarded")

	f.ctrl.Discard()
	assert.Equal(t, StateIdle, f.ctrl.State())
}

func TestVisibleContactsFiltering(t *testing.T) {
	f := newFixture(t)
	f.seedContact(t, models.Contact{FirstName: "A", FieraID: "E1"})
	f.seedContact(t, models.Contact{FirstName: "B", FieraID: "E1"})
	f.seedContact(t, models.Contact{FirstName: "C", FieraID: "E2"})
	f.seedContact(t, models.Contact{FirstName: "D"})

	f.ctrl.SetActiveFiera("E1")
	assert.Len(t, f.ctrl.VisibleContacts(), 2)

	f.ctrl.SetActiveFiera(models.AllFieras)
	assert.Len(t, f.ctrl.VisibleContacts(), 4)

	f.ctrl.SetActiveFiera("E2")
	assert.Len(t, f.ctrl.VisibleContacts(), 1)
}

func TestVisibleContactsSearch(t *testing.T) {
	f := newFixture(t)
	f.seedContact(t, models.Contact{FirstName: "Mario", Company: "Acme"})
	f.seedContact(t, models.Contact{FirstName: "Anna", Company: "Beta"})

	f.ctrl.SetSearch("acme")
	visible := f.ctrl.VisibleContacts()
	require.Len(t, visible, 1)
	assert.Equal(t, "Mario", visible[0].FirstName)
}

func TestLogoutTearsDownSubscriptionsBeforeCaches(t *testing.T) {
	f := newFixture(t)
	f.seedContact(t, models.Contact{FirstName: "Mario"})
	require.Len(t, f.ctrl.Contacts(), 1)

	require.NoError(t, f.ctrl.Logout())

	assert.False(t, f.ctrl.Session().Authenticated())
	assert.Empty(t, f.ctrl.Contacts())
	assert.Equal(t, models.AllFieras, f.ctrl.ActiveFiera())

	// A store mutation after logout must not reach the dead listener
	f.seedContact(t, models.Contact{FirstName: "Dopo"})
	assert.Empty(t, f.ctrl.Contacts(), "no dangling listener writes into a torn-down view")
}

func TestOnChangeFiresOnCacheUpdates(t *testing.T) {
	f := newFixture(t)

	changes := 0
	f.ctrl.SetOnChange(func() { changes++ })

	f.seedContact(t, models.Contact{FirstName: "Mario"})
	assert.Positive(t, changes)
}

func TestClearError(t *testing.T) {
	f := newFixture(t)
	f.extractor.err = &ocr.ExtractionError{Reason: "boom"}

	_ = f.ctrl.ProcessImage(context.Background(), []byte{1})
	require.NotEmpty(t, f.ctrl.LastError())

	f.ctrl.ClearError()
	assert.Empty(t, f.ctrl.LastError())
}
