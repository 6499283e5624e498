// ABOUTME: Shared test harness for the app package
// ABOUTME: Recording store wrappers, fake extractor and controller setup
package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieracrm/models"
	"fieracrm/ocr"
	"fieracrm/store"
)

// opLog records the order of store operations across both collections.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
}

func (l *opLog) count(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, o := range l.ops {
		if o == op {
			n++
		}
	}
	return n
}

func (l *opLog) sequence() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

type recordingContacts struct {
	store.ContactStore
	log *opLog
}

func (r *recordingContacts) Create(ctx context.Context, c models.Contact) (string, error) {
	r.log.add("create")
	return r.ContactStore.Create(ctx, c)
}

func (r *recordingContacts) Update(ctx context.Context, id string, c models.Contact) error {
	r.log.add("update")
	return r.ContactStore.Update(ctx, id, c)
}

func (r *recordingContacts) Delete(ctx context.Context, id string) error {
	r.log.add("delete")
	return r.ContactStore.Delete(ctx, id)
}

func (r *recordingContacts) BatchCreate(ctx context.Context, cs []models.Contact) error {
	r.log.add("batch-create")
	return r.ContactStore.BatchCreate(ctx, cs)
}

func (r *recordingContacts) ReassignFiera(ctx context.Context, oldID, newID string) error {
	r.log.add("reassign")
	return r.ContactStore.ReassignFiera(ctx, oldID, newID)
}

type recordingFieras struct {
	store.EventStore
	log *opLog
}

func (r *recordingFieras) Create(ctx context.Context, name string) (string, error) {
	r.log.add("create-fiera")
	return r.EventStore.Create(ctx, name)
}

func (r *recordingFieras) Delete(ctx context.Context, id string) error {
	r.log.add("delete-fiera")
	return r.EventStore.Delete(ctx, id)
}

type fakeExtractor struct {
	card models.ScannedCard
	err  error

	// onExtract, when set, runs while the extraction is "in flight",
	// before the result is returned.
	onExtract func()
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte) (models.ScannedCard, error) {
	if f.onExtract != nil {
		f.onExtract()
	}
	if ctx.Err() != nil {
		return models.ScannedCard{}, &ocr.ExtractionError{Reason: "cancelled", Err: ctx.Err()}
	}
	return f.card, f.err
}

type fixture struct {
	ctrl      *Controller
	memory    *store.Memory
	log       *opLog
	extractor *fakeExtractor
}

func testClock() func() int64 {
	var t int64
	return func() int64 {
		t++
		return t
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	memory := store.NewMemory(testClock())
	log := &opLog{}
	contacts := &recordingContacts{ContactStore: memory.Contacts(), log: log}
	fieras := &recordingFieras{EventStore: memory.Fieras(), log: log}
	extractor := &fakeExtractor{}

	session, err := OpenSession(t.TempDir(), "brevetti")
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	require.NoError(t, session.Login("brevetti"))

	ctrl := NewController(contacts, fieras, extractor, session, zap.NewNop())
	require.NoError(t, ctrl.Start(context.Background()))

	return &fixture{ctrl: ctrl, memory: memory, log: log, extractor: extractor}
}

// seedContact writes straight to the memory store, bypassing the op
// log, and returns the assigned id.
func (f *fixture) seedContact(t *testing.T, c models.Contact) string {
	t.Helper()
	id, err := f.memory.Contacts().Create(context.Background(), c)
	require.NoError(t, err)
	return id
}

func (f *fixture) seedFiera(t *testing.T, name string) string {
	t.Helper()
	id, err := f.memory.Fieras().Create(context.Background(), name)
	require.NoError(t, err)
	return id
}
