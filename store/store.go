// ABOUTME: Store contracts for the contacts and fieras collections
// ABOUTME: Defines subscribe/create/update/delete/batch/reassign plus the error taxonomy
package store

import (
	"context"
	"fmt"
	"strings"

	"fieracrm/models"
)

// Collection names, shared with the original Firestore data.
const (
	ContactsCollection = "contacts"
	FierasCollection   = "fieras"
)

// Unsubscribe stops a live subscription and releases its listener.
// Safe to call more than once.
type Unsubscribe func()

// ContactStore is the remote store contract for the contacts
// collection. The store is the sole source of truth: callers hold
// subscription-fed caches and never mutate them without a write that
// will be echoed back.
//
// Concurrency between clients is last-write-wins at the document
// level. There is no optimistic-lock token; this is an accepted risk
// inherited from the data model, not something the adapter papers
// over.
type ContactStore interface {
	// Subscribe registers a live listener. The callback receives the
	// full collection ordered by timestamp descending, once on attach
	// and again after every remote mutation. An empty collection is
	// delivered as an empty slice, never nil and never an error.
	// Delivery errors are logged and swallowed; they do not reach the
	// callback.
	Subscribe(ctx context.Context, onChange func([]models.Contact)) (Unsubscribe, error)

	// List is a one-shot ordered read, for surfaces that have no
	// subscription loop (CLI, MCP tools).
	List(ctx context.Context) ([]models.Contact, error)

	// Create persists a new document and returns the assigned id. Any
	// caller-supplied id is stripped and any caller-supplied timestamp
	// is overwritten with the write time.
	Create(ctx context.Context, c models.Contact) (string, error)

	// Update rewrites the document fields. The id in the payload is
	// stripped; the timestamp is refreshed. The write is atomic at the
	// document level: on error the stored document is unchanged.
	Update(ctx context.Context, id string, c models.Contact) error

	// Delete removes the document. A missing id is surfaced as a
	// PersistenceError, not swallowed.
	Delete(ctx context.Context, id string) error

	// BatchCreate persists every record as a new document, issuing
	// creates concurrently with a bounded worker pool. It is NOT
	// all-or-nothing: a partial failure leaves some records persisted.
	// Callers reconcile by re-reading the subscription. Known
	// limitation carried over from the original system.
	BatchCreate(ctx context.Context, cs []models.Contact) error

	// ReassignFiera rewrites the foreign key of every contact pointing
	// at oldID in a single transaction: to newID when non-empty,
	// otherwise the field is removed. All-or-nothing. No matching
	// contacts is a no-op, not an error.
	ReassignFiera(ctx context.Context, oldID, newID string) error
}

// EventStore is the remote store contract for the fieras collection.
// Fieras are created and deleted, never updated.
type EventStore interface {
	Subscribe(ctx context.Context, onChange func([]models.Fiera)) (Unsubscribe, error)
	List(ctx context.Context) ([]models.Fiera, error)

	// Create persists a new fiera and returns the assigned id. Blank
	// or whitespace-only names are rejected with a ValidationError.
	Create(ctx context.Context, name string) (string, error)

	Delete(ctx context.Context, id string) error
}

// PersistenceError wraps a failed store write or delete. User-visible
// and recoverable by retrying the same operation; never retried
// automatically.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError reports input rejected before it reaches the
// transport.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateFieraName enforces the shared event-name rule.
func ValidateFieraName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return nil
}

// batchWorkers bounds concurrent creates during imports so a large
// backup cannot overwhelm the transport.
const batchWorkers = 4
