// ABOUTME: In-memory implementation of the contact and fiera stores
// ABOUTME: Backs tests and offline mode with real listener semantics
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"fieracrm/models"
)

// Memory is an in-process document store implementing both collection
// contracts with the same semantics as the Firestore adapter: ordered
// snapshots, live listeners, transactional reassignment. Documents are
// held as sanitized maps, ids are ULIDs.
type Memory struct {
	mu        sync.Mutex
	contacts  map[string]map[string]any
	fieras    map[string]map[string]any
	listeners map[int]*memoryListener
	nextID    int
	now       func() int64

	// FailNextOp, when set, makes the next mutating call fail with a
	// PersistenceError naming that op. Used by tests to exercise
	// failure ordering.
	FailNextOp string
}

type memoryListener struct {
	collection string
	notify     func()
}

// NewMemory creates an empty in-memory store.
func NewMemory(now func() int64) *Memory {
	if now == nil {
		now = func() int64 { return 0 }
	}
	return &Memory{
		contacts:  make(map[string]map[string]any),
		fieras:    make(map[string]map[string]any),
		listeners: make(map[int]*memoryListener),
		now:       now,
	}
}

// Contacts returns the contact-collection view of the store.
func (m *Memory) Contacts() ContactStore { return &memoryContacts{m} }

// Fieras returns the fiera-collection view of the store.
func (m *Memory) Fieras() EventStore { return &memoryFieras{m} }

func (m *Memory) failIf(op string) error {
	if m.FailNextOp == op {
		m.FailNextOp = ""
		return &PersistenceError{Op: op, Err: fmt.Errorf("injected failure")}
	}
	return nil
}

func (m *Memory) addListener(collection string, notify func()) Unsubscribe {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = &memoryListener{collection: collection, notify: notify}
	m.mu.Unlock()

	notify()
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// broadcast runs outside the lock so listeners can call back into the
// store.
func (m *Memory) broadcast(collection string) {
	m.mu.Lock()
	pending := make([]func(), 0, len(m.listeners))
	for _, l := range m.listeners {
		if l.collection == collection {
			pending = append(pending, l.notify)
		}
	}
	m.mu.Unlock()

	for _, notify := range pending {
		notify()
	}
}

// snapshotDocs returns sanitized copies ordered by timestamp
// descending, id as tiebreak.
func (m *Memory) snapshotDocs(docs map[string]map[string]any) []map[string]any {
	m.mu.Lock()
	out := make([]map[string]any, 0, len(docs))
	for id, doc := range docs {
		clean := sanitize(doc).(map[string]any)
		clean["id"] = id
		out = append(out, clean)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		ti, _ := out[i]["timestamp"].(int64)
		tj, _ := out[j]["timestamp"].(int64)
		if ti != tj {
			return ti > tj
		}
		return out[i]["id"].(string) > out[j]["id"].(string)
	})
	return out
}

type memoryContacts struct{ m *Memory }

func (s *memoryContacts) Subscribe(ctx context.Context, onChange func([]models.Contact)) (Unsubscribe, error) {
	notify := func() {
		contacts := s.load()
		onChange(contacts)
	}
	unsub := s.m.addListener(ContactsCollection, notify)

	stop := context.AfterFunc(ctx, unsub)
	return func() {
		stop()
		unsub()
	}, nil
}

func (s *memoryContacts) load() []models.Contact {
	docs := s.m.snapshotDocs(s.m.contacts)
	contacts := make([]models.Contact, 0, len(docs))
	for _, doc := range docs {
		c, err := fromDocument[models.Contact](doc["id"].(string), doc)
		if err != nil {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts
}

func (s *memoryContacts) List(ctx context.Context) ([]models.Contact, error) {
	return s.load(), nil
}

func (s *memoryContacts) Create(ctx context.Context, c models.Contact) (string, error) {
	s.m.mu.Lock()
	if err := s.m.failIf("create"); err != nil {
		s.m.mu.Unlock()
		return "", err
	}
	doc, err := toDocument(c, s.m.now())
	if err != nil {
		s.m.mu.Unlock()
		return "", &PersistenceError{Op: "create", Err: err}
	}
	id := ulid.Make().String()
	s.m.contacts[id] = doc
	s.m.mu.Unlock()

	s.m.broadcast(ContactsCollection)
	return id, nil
}

func (s *memoryContacts) Update(ctx context.Context, id string, c models.Contact) error {
	s.m.mu.Lock()
	if err := s.m.failIf("update"); err != nil {
		s.m.mu.Unlock()
		return err
	}
	if _, ok := s.m.contacts[id]; !ok {
		s.m.mu.Unlock()
		return &PersistenceError{Op: "update", Err: fmt.Errorf("no document %s", id)}
	}
	doc, err := toDocument(c, s.m.now())
	if err != nil {
		s.m.mu.Unlock()
		return &PersistenceError{Op: "update", Err: err}
	}
	s.m.contacts[id] = doc
	s.m.mu.Unlock()

	s.m.broadcast(ContactsCollection)
	return nil
}

func (s *memoryContacts) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	if err := s.m.failIf("delete"); err != nil {
		s.m.mu.Unlock()
		return err
	}
	if _, ok := s.m.contacts[id]; !ok {
		s.m.mu.Unlock()
		return &PersistenceError{Op: "delete", Err: fmt.Errorf("no document %s", id)}
	}
	delete(s.m.contacts, id)
	s.m.mu.Unlock()

	s.m.broadcast(ContactsCollection)
	return nil
}

func (s *memoryContacts) BatchCreate(ctx context.Context, cs []models.Contact) error {
	var firstErr error
	for _, c := range cs {
		if _, err := s.Create(ctx, c); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *memoryContacts) ReassignFiera(ctx context.Context, oldID, newID string) error {
	s.m.mu.Lock()
	if err := s.m.failIf("reassign"); err != nil {
		s.m.mu.Unlock()
		return err
	}
	changed := false
	for _, doc := range s.m.contacts {
		if doc["fieraId"] == oldID {
			if newID == "" {
				delete(doc, "fieraId")
			} else {
				doc["fieraId"] = newID
			}
			changed = true
		}
	}
	s.m.mu.Unlock()

	if changed {
		s.m.broadcast(ContactsCollection)
	}
	return nil
}

type memoryFieras struct{ m *Memory }

func (s *memoryFieras) Subscribe(ctx context.Context, onChange func([]models.Fiera)) (Unsubscribe, error) {
	notify := func() {
		fieras, _ := s.List(ctx)
		onChange(fieras)
	}
	unsub := s.m.addListener(FierasCollection, notify)

	stop := context.AfterFunc(ctx, unsub)
	return func() {
		stop()
		unsub()
	}, nil
}

func (s *memoryFieras) List(ctx context.Context) ([]models.Fiera, error) {
	docs := s.m.snapshotDocs(s.m.fieras)
	fieras := make([]models.Fiera, 0, len(docs))
	for _, doc := range docs {
		f, err := fromDocument[models.Fiera](doc["id"].(string), doc)
		if err != nil {
			continue
		}
		fieras = append(fieras, f)
	}
	return fieras, nil
}

func (s *memoryFieras) Create(ctx context.Context, name string) (string, error) {
	if err := ValidateFieraName(name); err != nil {
		return "", err
	}

	s.m.mu.Lock()
	if err := s.m.failIf("create-fiera"); err != nil {
		s.m.mu.Unlock()
		return "", err
	}
	id := ulid.Make().String()
	s.m.fieras[id] = map[string]any{"name": name, "timestamp": s.m.now()}
	s.m.mu.Unlock()

	s.m.broadcast(FierasCollection)
	return id, nil
}

func (s *memoryFieras) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	if err := s.m.failIf("delete-fiera"); err != nil {
		s.m.mu.Unlock()
		return err
	}
	if _, ok := s.m.fieras[id]; !ok {
		s.m.mu.Unlock()
		return &PersistenceError{Op: "delete-fiera", Err: fmt.Errorf("no document %s", id)}
	}
	delete(s.m.fieras, id)
	s.m.mu.Unlock()

	s.m.broadcast(FierasCollection)
	return nil
}
