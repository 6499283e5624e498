// ABOUTME: Application state controller mediating stores, OCR and presentation
// ABOUTME: Owns subscription caches, the active filter and the in-flight record
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"fieracrm/models"
	"fieracrm/ocr"
	"fieracrm/store"
)

// User-facing messages, kept from the original UI.
const (
	msgExtractionFailed = "Errore durante l'analisi OCR. Assicurati che l'immagine sia nitida e riprova."
	msgSaveFailed       = "Errore nel salvataggio del database. Riprova tra poco."
	msgDeleteFailed     = "Impossibile eliminare il contatto. Riprova."
	msgFieraFailed      = "Impossibile creare l'evento."
	msgImportFailed     = "Importazione non riuscita. Riprova."
)

// ErrNotAuthenticated guards data operations behind the session gate.
var ErrNotAuthenticated = errors.New("not authenticated")

// Controller owns the in-memory view state. Its caches mirror the
// remote store via the two live subscriptions and are never mutated
// locally: every change goes through a store write whose echo updates
// the cache.
type Controller struct {
	mu sync.Mutex

	contacts  store.ContactStore
	fieras    store.EventStore
	extractor ocr.Extractor
	session   *Session
	logger    *zap.Logger

	contactCache []models.Contact
	fieraCache   []models.Fiera

	activeFiera string
	search      string

	state    State
	inFlight *models.Contact
	preEdit  *models.Contact
	existing bool

	lastErr string

	unsubContacts store.Unsubscribe
	unsubFieras   store.Unsubscribe
	cancelExtract context.CancelFunc

	onChange func()
}

// NewController wires the adapters together. Call Start after a
// successful login to attach the subscriptions.
func NewController(contacts store.ContactStore, fieras store.EventStore, extractor ocr.Extractor, session *Session, logger *zap.Logger) *Controller {
	return &Controller{
		contacts:     contacts,
		fieras:       fieras,
		extractor:    extractor,
		session:      session,
		logger:       logger,
		contactCache: []models.Contact{},
		fieraCache:   []models.Fiera{},
		activeFiera:  models.AllFieras,
	}
}

// SetOnChange registers a refresh hook invoked after every cache or
// view-state change. The TUI uses it to repaint.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Session returns the session object.
func (c *Controller) Session() *Session { return c.session }

// Start attaches both live subscriptions. The two channels are
// independent: a contacts update never blocks fiera delivery.
func (c *Controller) Start(ctx context.Context) error {
	if !c.session.Authenticated() {
		return ErrNotAuthenticated
	}

	unsubContacts, err := c.contacts.Subscribe(ctx, func(cs []models.Contact) {
		c.mu.Lock()
		c.contactCache = cs
		c.mu.Unlock()
		c.notify()
	})
	if err != nil {
		return fmt.Errorf("subscribe contacts: %w", err)
	}

	unsubFieras, err := c.fieras.Subscribe(ctx, func(fs []models.Fiera) {
		c.mu.Lock()
		c.fieraCache = fs
		c.mu.Unlock()
		c.notify()
	})
	if err != nil {
		unsubContacts()
		return fmt.Errorf("subscribe fieras: %w", err)
	}

	c.mu.Lock()
	c.unsubContacts = unsubContacts
	c.unsubFieras = unsubFieras
	c.mu.Unlock()
	return nil
}

// Logout tears the session down: both subscriptions are released
// BEFORE the caches are dropped, so no dangling listener can write
// into a torn-down view.
func (c *Controller) Logout() error {
	c.mu.Lock()
	unsubContacts, unsubFieras := c.unsubContacts, c.unsubFieras
	c.unsubContacts, c.unsubFieras = nil, nil
	cancel := c.cancelExtract
	c.cancelExtract = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsubContacts != nil {
		unsubContacts()
	}
	if unsubFieras != nil {
		unsubFieras()
	}

	c.mu.Lock()
	c.contactCache = []models.Contact{}
	c.fieraCache = []models.Fiera{}
	c.activeFiera = models.AllFieras
	c.state = StateIdle
	c.inFlight = nil
	c.preEdit = nil
	c.mu.Unlock()

	return c.session.Logout()
}

// Contacts returns a copy of the contact cache.
func (c *Controller) Contacts() []models.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Contact(nil), c.contactCache...)
}

// Fieras returns a copy of the fiera cache.
func (c *Controller) Fieras() []models.Fiera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Fiera(nil), c.fieraCache...)
}

// ActiveFiera returns the current filter id, models.AllFieras when no
// filter is active.
func (c *Controller) ActiveFiera() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeFiera
}

// SetActiveFiera switches the event filter.
func (c *Controller) SetActiveFiera(id string) {
	c.mu.Lock()
	c.activeFiera = id
	c.mu.Unlock()
	c.notify()
}

// SetSearch updates the text search term.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	c.search = term
	c.mu.Unlock()
	c.notify()
}

// VisibleContacts applies the pure display filter: the record's
// foreign key must match the active filter (or the filter is "all"),
// and the search term must match name or company.
func (c *Controller) VisibleContacts() []models.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []models.Contact{}
	for _, contact := range c.contactCache {
		if contact.MatchesFiera(c.activeFiera) && contact.MatchesSearch(c.search) {
			out = append(out, contact)
		}
	}
	return out
}

// State returns the in-flight record state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InFlight returns a copy of the record being reviewed or edited, or
// nil.
func (c *Controller) InFlight() *models.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight == nil {
		return nil
	}
	clone := c.inFlight.Clone()
	return &clone
}

// ReviewingExisting reports whether the in-flight record came from the
// store rather than a fresh extraction.
func (c *Controller) ReviewingExisting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.existing
}

// LastError returns the last surfaced user-visible message, empty when
// none.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError dismisses the surfaced message.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) surface(msg string, err error) {
	c.logger.Error(msg, zap.Error(err))
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

// BeginCapture enters the capture flow.
func (c *Controller) BeginCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.move(StateCapturing)
}

// CancelCapture abandons the capture flow. If an extraction is in
// flight its context is cancelled: the outstanding OCR request is
// aborted rather than left to complete and be discarded (documented
// design choice).
func (c *Controller) CancelCapture() {
	c.mu.Lock()
	cancel := c.cancelExtract
	c.cancelExtract = nil
	c.state = StateIdle
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.notify()
}

// ProcessImage runs the extraction flow: Extracting, then
// Reviewing(draft) on success or back to Idle with a surfaced error on
// failure. There is no retry loop; a failed extraction requires a
// fresh capture.
func (c *Controller) ProcessImage(ctx context.Context, image []byte) error {
	c.mu.Lock()
	if err := c.move(StateExtracting); err != nil {
		c.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancelExtract = cancel
	activeFiera := c.activeFiera
	c.mu.Unlock()
	c.notify()
	defer cancel()

	card, err := c.extractor.Extract(ctx, image)

	c.mu.Lock()
	c.cancelExtract = nil
	if c.state != StateExtracting {
		// Navigated away while the request was in flight; the result,
		// success or not, belongs to an abandoned capture.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.state = StateIdle
		c.mu.Unlock()
		c.surface(msgExtractionFailed, err)
		c.notify()
		return err
	}

	draft := card.Contact(activeFiera)
	c.inFlight = &draft
	c.existing = false
	c.state = StateReviewing
	c.mu.Unlock()
	c.notify()
	return nil
}

// OpenContact loads a persisted record into review, skipping
// extraction.
func (c *Controller) OpenContact(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, contact := range c.contactCache {
		if contact.ID == id {
			if err := c.move(StateReviewing); err != nil {
				return err
			}
			clone := contact.Clone()
			if clone.Report == nil {
				clone.Report = models.NewVisitReport()
			}
			c.inFlight = &clone
			c.existing = true
			return nil
		}
	}
	return fmt.Errorf("no contact %s in cache", id)
}

// BeginEdit moves from review to editing, snapshotting the record so
// a cancelled edit restores it exactly.
func (c *Controller) BeginEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.move(StateEditing); err != nil {
		return err
	}
	if c.inFlight != nil && c.existing {
		snap := c.inFlight.Clone()
		c.preEdit = &snap
	}
	return nil
}

// CancelEdit returns to review, restoring the pre-edit snapshot. A
// draft has no snapshot to restore; its only way out is Discard.
func (c *Controller) CancelEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEditing {
		return fmt.Errorf("not editing")
	}
	if !c.existing || c.preEdit == nil {
		return fmt.Errorf("draft edits cannot be cancelled, discard instead")
	}
	snap := c.preEdit.Clone()
	c.inFlight = &snap
	c.preEdit = nil
	return c.move(StateReviewing)
}

// UpdateInFlight applies fn to the in-flight record while reviewing or
// editing. The cache copy is untouched until Save.
func (c *Controller) UpdateInFlight(fn func(*models.Contact)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight == nil || (c.state != StateReviewing && c.state != StateEditing) {
		return fmt.Errorf("no record in flight")
	}
	fn(c.inFlight)
	return nil
}

// Discard drops the in-flight record and returns to idle.
func (c *Controller) Discard() {
	c.mu.Lock()
	c.inFlight = nil
	c.preEdit = nil
	c.existing = false
	c.state = StateIdle
	c.mu.Unlock()
	c.notify()
}
