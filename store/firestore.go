// ABOUTME: Firestore-backed implementation of the contact and fiera stores
// ABOUTME: Snapshot listeners, precondition deletes and the reassignment transaction
package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fieracrm/models"
)

// Firestore wraps the cloud client behind the two collection
// contracts. Timestamps are assigned here at write time as epoch
// milliseconds, overwriting anything the caller supplied, which keeps
// the numeric wire shape the existing documents already use.
type Firestore struct {
	client *firestore.Client
	logger *zap.Logger
	now    func() int64
}

// NewFirestore connects to the project. credentialsFile may be empty,
// in which case application default credentials apply.
func NewFirestore(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}

	return &Firestore{
		client: client,
		logger: logger,
		now:    func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Close releases the underlying client.
func (f *Firestore) Close() error { return f.client.Close() }

// Contacts returns the contact-collection view of the store.
func (f *Firestore) Contacts() ContactStore { return &fsContacts{f} }

// Fieras returns the fiera-collection view of the store.
func (f *Firestore) Fieras() EventStore { return &fsFieras{f} }

// watch runs a snapshot listener until the subscription context is
// cancelled. Listener errors are logged and end the loop; they never
// reach onSnap. The channel stays silent rather than crashing the
// caller's view.
func (f *Firestore) watch(ctx context.Context, collection string, onSnap func(*firestore.QuerySnapshot)) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	query := f.client.Collection(collection).OrderBy("timestamp", firestore.Desc)
	snaps := query.Snapshots(ctx)

	go func() {
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					f.logger.Error("subscription lost",
						zap.String("collection", collection), zap.Error(err))
				}
				return
			}
			onSnap(snap)
		}
	}()

	return Unsubscribe(cancel), nil
}

type fsContacts struct{ f *Firestore }

func (s *fsContacts) Subscribe(ctx context.Context, onChange func([]models.Contact)) (Unsubscribe, error) {
	return s.f.watch(ctx, ContactsCollection, func(snap *firestore.QuerySnapshot) {
		contacts, err := s.decodeAll(snap.Documents)
		if err != nil {
			s.f.logger.Error("decode contacts snapshot", zap.Error(err))
			return
		}
		onChange(contacts)
	})
}

func (s *fsContacts) decodeAll(docs *firestore.DocumentIterator) ([]models.Contact, error) {
	contacts := []models.Contact{}
	for {
		doc, err := docs.Next()
		if err == iterator.Done {
			return contacts, nil
		}
		if err != nil {
			return nil, err
		}
		c, err := fromDocument[models.Contact](doc.Ref.ID, doc.Data())
		if err != nil {
			// One malformed document must not hide the rest.
			s.f.logger.Warn("skipping malformed contact",
				zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		contacts = append(contacts, c)
	}
}

func (s *fsContacts) List(ctx context.Context) ([]models.Contact, error) {
	docs := s.f.client.Collection(ContactsCollection).
		OrderBy("timestamp", firestore.Desc).Documents(ctx)
	contacts, err := s.decodeAll(docs)
	if err != nil {
		return nil, &PersistenceError{Op: "list contacts", Err: err}
	}
	return contacts, nil
}

func (s *fsContacts) Create(ctx context.Context, c models.Contact) (string, error) {
	doc, err := toDocument(c, s.f.now())
	if err != nil {
		return "", &PersistenceError{Op: "create contact", Err: err}
	}
	ref, _, err := s.f.client.Collection(ContactsCollection).Add(ctx, doc)
	if err != nil {
		return "", &PersistenceError{Op: "create contact", Err: err}
	}
	return ref.ID, nil
}

func (s *fsContacts) Update(ctx context.Context, id string, c models.Contact) error {
	doc, err := toDocument(c, s.f.now())
	if err != nil {
		return &PersistenceError{Op: "update contact", Err: err}
	}
	if _, err := s.f.client.Collection(ContactsCollection).Doc(id).Set(ctx, doc); err != nil {
		return &PersistenceError{Op: "update contact", Err: err}
	}
	return nil
}

func (s *fsContacts) Delete(ctx context.Context, id string) error {
	// The Exists precondition turns a delete of a missing document
	// into an error instead of a silent success.
	ref := s.f.client.Collection(ContactsCollection).Doc(id)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return &PersistenceError{Op: "delete contact", Err: err}
	}
	return nil
}

func (s *fsContacts) BatchCreate(ctx context.Context, cs []models.Contact) error {
	sem := make(chan struct{}, batchWorkers)
	errs := make(chan error, len(cs))

	for _, c := range cs {
		sem <- struct{}{}
		go func(c models.Contact) {
			defer func() { <-sem }()
			_, err := s.Create(ctx, c)
			errs <- err
		}(c)
	}

	var firstErr error
	for range cs {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *fsContacts) ReassignFiera(ctx context.Context, oldID, newID string) error {
	err := s.f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := s.f.client.Collection(ContactsCollection).Where("fieraId", "==", oldID)
		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}

		value := any(firestore.Delete)
		if newID != "" {
			value = newID
		}
		for _, doc := range docs {
			if err := tx.Update(doc.Ref, []firestore.Update{{Path: "fieraId", Value: value}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &PersistenceError{Op: "reassign contacts", Err: err}
	}
	return nil
}

type fsFieras struct{ f *Firestore }

func (s *fsFieras) Subscribe(ctx context.Context, onChange func([]models.Fiera)) (Unsubscribe, error) {
	return s.f.watch(ctx, FierasCollection, func(snap *firestore.QuerySnapshot) {
		fieras, err := s.decodeAll(snap.Documents)
		if err != nil {
			s.f.logger.Error("decode fieras snapshot", zap.Error(err))
			return
		}
		onChange(fieras)
	})
}

func (s *fsFieras) decodeAll(docs *firestore.DocumentIterator) ([]models.Fiera, error) {
	fieras := []models.Fiera{}
	for {
		doc, err := docs.Next()
		if err == iterator.Done {
			return fieras, nil
		}
		if err != nil {
			return nil, err
		}
		f, err := fromDocument[models.Fiera](doc.Ref.ID, doc.Data())
		if err != nil {
			s.f.logger.Warn("skipping malformed fiera",
				zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		fieras = append(fieras, f)
	}
}

func (s *fsFieras) List(ctx context.Context) ([]models.Fiera, error) {
	docs := s.f.client.Collection(FierasCollection).
		OrderBy("timestamp", firestore.Desc).Documents(ctx)
	fieras, err := s.decodeAll(docs)
	if err != nil {
		return nil, &PersistenceError{Op: "list fieras", Err: err}
	}
	return fieras, nil
}

func (s *fsFieras) Create(ctx context.Context, name string) (string, error) {
	if err := ValidateFieraName(name); err != nil {
		return "", err
	}
	doc := map[string]any{"name": name, "timestamp": s.f.now()}
	ref, _, err := s.f.client.Collection(FierasCollection).Add(ctx, doc)
	if err != nil {
		return "", &PersistenceError{Op: "create fiera", Err: err}
	}
	return ref.ID, nil
}

func (s *fsFieras) Delete(ctx context.Context, id string) error {
	ref := s.f.client.Collection(FierasCollection).Doc(id)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return &PersistenceError{Op: "delete fiera", Err: err}
	}
	return nil
}
