package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines a public type used by tmauth APIs.
//
// Store holds the in-memory credential snapshot and mirrors every mutation to
// the configured Storage backend. All mutations replace the record as a whole
// under the store mutex, so readers never observe a token paired with a stale
// identity.
type Store struct {
	mu      sync.RWMutex
	rec     Record
	storage Storage
	now     func() time.Time
}

// StoreOption describes the store option operation and its observable
// behavior.
type StoreOption func(*Store)

// WithNow overrides the store clock. Test use only.
func WithNow(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore describes the new store operation and its observable behavior.
// A nil storage falls back to MemoryStorage.
func NewStore(storage Storage, opts ...StoreOption) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{
		storage: storage,
		now:     time.Now,
		rec:     Record{SchemaVersion: CurrentSchemaVersion},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load hydrates the in-memory record from the backend. An absent or corrupt
// persisted record yields an empty session and a nil error; only backend
// unavailability is surfaced. Load also assigns the installation id on first
// run and persists it.
func (s *Store) Load(ctx context.Context) error {
	if s == nil {
		return nil
	}

	data, err := s.storage.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		// First run. Fall through with an empty record.
	case err != nil:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		var rec Record
		if json.Unmarshal(data, &rec) == nil &&
			rec.SchemaVersion <= CurrentSchemaVersion &&
			rec.valid() {
			s.mu.Lock()
			s.rec = rec
			s.mu.Unlock()
		}
	}

	return s.ensureInstallID(ctx)
}

// ensureInstallID assigns a durable installation id if the record has none
// and persists the result.
func (s *Store) ensureInstallID(ctx context.Context) error {
	s.mu.Lock()
	if s.rec.InstallID != "" {
		s.mu.Unlock()
		return nil
	}
	s.rec.InstallID = uuid.NewString()
	s.rec.SchemaVersion = CurrentSchemaVersion
	rec := s.rec
	s.mu.Unlock()

	return s.persist(ctx, rec)
}

// Save commits a full token/identity tuple in one atomic swap. ExpiresIn must
// be positive; expiry fallback for bundles without a lifetime happens before
// this call.
func (s *Store) Save(ctx context.Context, t Tokens) error {
	if s == nil {
		return nil
	}
	if t.AccessToken == "" {
		return errors.New("session: save requires an access token")
	}
	if t.ExpiresIn <= 0 {
		return errors.New("session: save requires a positive lifetime")
	}

	s.mu.Lock()
	s.rec = Record{
		AccessToken:   t.AccessToken,
		RefreshToken:  t.RefreshToken,
		UserID:        t.UserID,
		TenantID:      t.TenantID,
		ExpiresAt:     s.now().Unix() + t.ExpiresIn,
		PhoneVerified: t.PhoneVerified,
		InstallID:     s.rec.InstallID,
		SchemaVersion: CurrentSchemaVersion,
	}
	rec := s.rec
	s.mu.Unlock()

	return s.persist(ctx, rec)
}

// SetVerified updates the phone-verification flag without touching the token
// tuple. No-op when no session is held.
func (s *Store) SetVerified(ctx context.Context, verified bool) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	if s.rec.AccessToken == "" || s.rec.PhoneVerified == verified {
		s.mu.Unlock()
		return nil
	}
	s.rec.PhoneVerified = verified
	rec := s.rec
	s.mu.Unlock()

	return s.persist(ctx, rec)
}

// Clear drops the credential tuple. The installation id survives so the
// device identity remains stable across logouts.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	s.rec = Record{
		InstallID:     s.rec.InstallID,
		SchemaVersion: CurrentSchemaVersion,
	}
	rec := s.rec
	s.mu.Unlock()

	return s.persist(ctx, rec)
}

// Current returns a snapshot of the record.
func (s *Store) Current() Record {
	if s == nil {
		return Record{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec
}

// Authenticated reports whether a live access token is held right now.
func (s *Store) Authenticated() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Authenticated(s.now())
}

// Expired reports whether a token is held but past its expiry instant.
func (s *Store) Expired() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Expired(s.now())
}

func (s *Store) persist(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: encode record: %w", err)
	}
	if err := s.storage.Save(ctx, data); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
