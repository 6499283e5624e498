// ABOUTME: Authenticated-session marker backed by a local badger store
// ABOUTME: Replaces the original browser localStorage flag, same bs_auth key
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
)

// Key names inside the badger store. bs_auth is kept from the
// original data so an upgraded installation stays logged in.
const (
	authKey   = "bs_auth"
	deviceKey = "device_id"
)

// ErrBadPassword is returned by Login on a failed password check.
var ErrBadPassword = errors.New("wrong password")

// Session is the explicit session-state object: created at startup by
// reading persisted state, destroyed on logout by clearing the marker.
// The shared static password gate is a deliberate carry-over; its
// strength is out of scope.
type Session struct {
	db            *badger.DB
	password      string
	authenticated bool
	deviceID      string
}

// OpenSession opens (or creates) the session store in dir and reads
// the persisted state.
func OpenSession(dir, password string) (*Session, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	s := &Session{db: db, password: password}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) load() error {
	return s.db.Update(func(txn *badger.Txn) error {
		if item, err := txn.Get([]byte(authKey)); err == nil {
			_ = item.Value(func(val []byte) error {
				// Absence or anything but "true" means unauthenticated.
				s.authenticated = string(val) == "true"
				return nil
			})
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		item, err := txn.Get([]byte(deviceKey))
		if err == badger.ErrKeyNotFound {
			s.deviceID = uuid.NewString()
			return txn.Set([]byte(deviceKey), []byte(s.deviceID))
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			s.deviceID = string(val)
			return nil
		})
	})
}

// Authenticated reports whether a valid marker was present or Login
// succeeded.
func (s *Session) Authenticated() bool { return s.authenticated }

// DeviceID identifies this installation in logs.
func (s *Session) DeviceID() string { return s.deviceID }

// Login checks the shared password (case-insensitive, as the original)
// and persists the marker.
func (s *Session) Login(password string) error {
	if !strings.EqualFold(strings.TrimSpace(password), s.password) {
		return ErrBadPassword
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(authKey), []byte("true"))
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.authenticated = true
	return nil
}

// Logout clears the persisted marker and the in-memory flag. The
// controller tears down its subscriptions before calling this.
func (s *Session) Logout() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(authKey))
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.authenticated = false
	return nil
}

// Close releases the store.
func (s *Session) Close() error { return s.db.Close() }
