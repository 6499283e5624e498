// ABOUTME: Reconciliation between contacts and fieras across store writes
// ABOUTME: Save-or-create, event deletion cascade, import-as-new
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fieracrm/models"
	"fieracrm/store"
)

// Save persists the in-flight record and returns to idle. An empty
// identity means exactly one create (the store assigns a fresh id); a
// non-empty identity means exactly one update whose payload excludes
// the id. On failure the record stays in flight so the user can retry
// by repeating the action.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight == nil {
		c.mu.Unlock()
		return fmt.Errorf("nothing to save")
	}
	record := c.inFlight.Clone()
	c.mu.Unlock()

	var err error
	if record.IsDraft() {
		_, err = c.contacts.Create(ctx, record)
	} else {
		err = c.contacts.Update(ctx, record.ID, record)
	}
	if err != nil {
		c.surface(msgSaveFailed, err)
		c.notify()
		return err
	}

	c.logger.Info("contact saved",
		zap.Bool("created", record.IsDraft()),
		zap.String("fiera", record.FieraID))
	c.Discard()
	return nil
}

// DeleteContact removes a persisted record. If it was the one being
// reviewed, the review closes.
func (c *Controller) DeleteContact(ctx context.Context, id string) error {
	if err := c.contacts.Delete(ctx, id); err != nil {
		c.surface(msgDeleteFailed, err)
		c.notify()
		return err
	}

	c.mu.Lock()
	closeReview := c.inFlight != nil && c.inFlight.ID == id
	c.mu.Unlock()
	if closeReview {
		c.Discard()
	} else {
		c.notify()
	}
	return nil
}

// CreateFiera creates a new event and makes it the active filter, as
// the original flow does after "new event".
func (c *Controller) CreateFiera(ctx context.Context, name string) (string, error) {
	id, err := c.fieras.Create(ctx, name)
	if err != nil {
		if _, ok := err.(*store.ValidationError); !ok {
			c.surface(msgFieraFailed, err)
		}
		c.notify()
		return "", err
	}

	c.SetActiveFiera(id)
	return id, nil
}

// AssociatedContacts returns the cached contacts whose foreign key
// points at the fiera. This is the contacts-at-time-of-decision set
// the deletion dialog shows.
func (c *Controller) AssociatedContacts(fieraID string) []models.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []models.Contact{}
	for _, contact := range c.contactCache {
		if contact.FieraID == fieraID {
			out = append(out, contact)
		}
	}
	return out
}

// DeleteFiera deletes an event. moveTo names the disposition for
// contacts still pointing at it: another existing fiera id, or empty
// to detach them. Reassignment runs first, in one transaction; the
// fiera is deleted only if reassignment succeeded, so a failed cascade
// never leaves dangling references behind a deleted event. If the
// active filter was the deleted fiera it resets to all events.
func (c *Controller) DeleteFiera(ctx context.Context, fieraID, moveTo string) error {
	if moveTo == fieraID {
		return &store.ValidationError{Field: "moveTo", Reason: "cannot move contacts to the fiera being deleted"}
	}

	if len(c.AssociatedContacts(fieraID)) > 0 {
		if err := c.contacts.ReassignFiera(ctx, fieraID, moveTo); err != nil {
			c.surface(msgDeleteFailed, err)
			c.notify()
			return err
		}
	}

	if err := c.fieras.Delete(ctx, fieraID); err != nil {
		c.surface(msgDeleteFailed, err)
		c.notify()
		return err
	}

	c.mu.Lock()
	if c.activeFiera == fieraID {
		c.activeFiera = models.AllFieras
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// ImportContacts creates every record as new. Identities on the
// incoming records are discarded: import never upserts, even when an
// id collides with an existing document. confirm receives the record
// count and must return true before anything is written; it is the
// only guard against an accidental mass import.
//
// The batch is not all-or-nothing (a known carried-over limitation): a
// partial failure leaves some records persisted, and the subscription
// echo shows what actually landed.
func (c *Controller) ImportContacts(ctx context.Context, records []models.Contact, confirm func(count int) bool) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if confirm == nil || !confirm(len(records)) {
		return 0, nil
	}

	if err := c.contacts.BatchCreate(ctx, records); err != nil {
		c.surface(msgImportFailed, err)
		c.notify()
		return 0, err
	}

	c.logger.Info("imported contacts", zap.Int("count", len(records)))
	c.notify()
	return len(records), nil
}
