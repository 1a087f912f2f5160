package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.CredentialStore = (*CredentialStore)(nil)

// CredentialStore keeps credential hashes in memory, one record per restaurant.
type CredentialStore struct {
	mu      sync.RWMutex
	records map[int64]ports.CredentialRecord
	now     func() time.Time
}

// NewCredentialStore constructs an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{records: map[int64]ports.CredentialRecord{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (s *CredentialStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Save inserts or replaces the restaurant's credentials.
func (s *CredentialStore) Save(_ context.Context, record ports.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	record.Username = strings.ToLower(strings.TrimSpace(record.Username))
	if existing, ok := s.records[record.RestaurantID]; ok {
		record.CreatedAt = existing.CreatedAt
	} else {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.records[record.RestaurantID] = record
	return nil
}

// GetByUsername finds credentials by login name.
func (s *CredentialStore) GetByUsername(_ context.Context, username string) (*ports.CredentialRecord, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.Username == username {
			copy := record
			return &copy, nil
		}
	}
	return nil, ports.ErrNotFound
}

// DeleteIssued removes a restaurant's credentials when the stored hash matches.
func (s *CredentialStore) DeleteIssued(_ context.Context, restaurantID int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[restaurantID]; ok && record.PasswordHash == passwordHash {
		delete(s.records, restaurantID)
	}
	return nil
}

// MarkUsed records the first successful login and clears the expiry.
func (s *CredentialStore) MarkUsed(_ context.Context, restaurantID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[restaurantID]
	if !ok {
		return ports.ErrNotFound
	}
	if record.UsedAt == nil {
		used := at
		record.UsedAt = &used
	}
	record.ExpiresAt = nil
	record.UpdatedAt = s.now()
	s.records[restaurantID] = record
	return nil
}

// PurgeExpired deletes unused credentials whose expiry passed.
func (s *CredentialStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for id, record := range s.records {
		if record.UsedAt == nil && record.ExpiresAt != nil && record.ExpiresAt.Before(now) {
			delete(s.records, id)
			purged++
		}
	}
	return purged, nil
}
