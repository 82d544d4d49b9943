package session

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"timetrack-auth/internal/security"
	"timetrack-auth/internal/session/domain"
)

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: make(map[string]*domain.Session)}
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.m {
		if s.UserID == userID && s.RevokedAt == nil && s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *memSessionRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.m {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *memSessionRepo) ListByTenant(ctx context.Context, tenantID int64) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.m {
		if s.TenantID != nil && *s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok && s.RevokedAt == nil {
		t := at
		s.RevokedAt = &t
	}
	return nil
}

func (r *memSessionRepo) RevokeAllByUser(ctx context.Context, userID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.m {
		if s.UserID == userID && s.RevokedAt == nil {
			t := at
			s.RevokedAt = &t
		}
	}
	return nil
}

func (r *memSessionRepo) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		t := at
		s.LastSeenAt = &t
	}
	return nil
}

func sortNewestFirst(sessions []*domain.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}

func newTestStore() (*Store, *memSessionRepo) {
	repo := newMemSessionRepo()
	return NewStore(repo, security.NewHasher(4)), repo
}

func TestStore_CreateHashesRefreshToken(t *testing.T) {
	store, repo := newTestStore()
	ctx := context.Background()
	tenantID := int64(7)

	sess, err := store.Create(ctx, CreateParams{
		UserID:       42,
		TenantID:     &tenantID,
		RefreshToken: "plaintext-refresh",
		ExpiresAt:    time.Now().UTC().Add(security.RefreshTokenTTL),
		DeviceID:     "dev1",
		ClientType:   domain.ClientTypeDesktop,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.RefreshTokenHash == "" || sess.RefreshTokenHash == "plaintext-refresh" {
		t.Fatal("stored value must be a digest, not the plaintext")
	}
	saved, _ := repo.GetByID(ctx, sess.ID)
	if saved == nil || saved.RefreshTokenHash != sess.RefreshTokenHash {
		t.Fatal("session not persisted with hash")
	}
	if saved.DeviceID != "dev1" || saved.ClientType != domain.ClientTypeDesktop {
		t.Errorf("device metadata not persisted: %+v", saved)
	}
}

func TestStore_FindValid(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, CreateParams{
		UserID:       42,
		RefreshToken: "refresh-token-abc",
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
		ClientType:   domain.ClientTypeWeb,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := store.FindValid(ctx, 42, "refresh-token-abc")
	if err != nil {
		t.Fatalf("FindValid: %v", err)
	}
	if found == nil || found.ID != sess.ID {
		t.Fatal("FindValid should return the matching session")
	}

	// A token sharing a prefix with the real one must not verify.
	if found, _ := store.FindValid(ctx, 42, "refresh-token-abc-extra"); found != nil {
		t.Fatal("prefix token should not match")
	}
	if found, _ := store.FindValid(ctx, 42, "other-token"); found != nil {
		t.Fatal("unrelated token should not match")
	}
	if found, _ := store.FindValid(ctx, 99, "refresh-token-abc"); found != nil {
		t.Fatal("another user's token should not match")
	}
}

func TestStore_CreateAndFindValidWithSignedToken(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	tokens := security.NewTestTokenProvider()

	// A signed refresh token is a few hundred bytes; Create must still hash it.
	refresh, expiresAt, err := tokens.IssueRefresh(security.UserPayload{UserID: 42, Email: "a@b.test", TenantID: 7})
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if len(refresh) <= 72 {
		t.Fatalf("signed token unexpectedly short: %d bytes", len(refresh))
	}

	sess, err := store.Create(ctx, CreateParams{
		UserID:       42,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		t.Fatalf("Create with signed token: %v", err)
	}

	found, err := store.FindValid(ctx, 42, refresh)
	if err != nil {
		t.Fatalf("FindValid: %v", err)
	}
	if found == nil || found.ID != sess.ID {
		t.Fatal("FindValid should return the session for the signed token")
	}
	if found, _ := store.FindValid(ctx, 42, refresh+"x"); found != nil {
		t.Fatal("tampered token should not match")
	}
}

func TestStore_FindValidSkipsRevokedAndExpired(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	expired, _ := store.Create(ctx, CreateParams{
		UserID: 1, RefreshToken: "tok-expired", ExpiresAt: time.Now().UTC().Add(-time.Minute),
	})
	_ = expired
	revoked, _ := store.Create(ctx, CreateParams{
		UserID: 1, RefreshToken: "tok-revoked", ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	if err := store.Revoke(ctx, revoked.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if found, _ := store.FindValid(ctx, 1, "tok-expired"); found != nil {
		t.Error("expired session must never be returned as valid")
	}
	if found, _ := store.FindValid(ctx, 1, "tok-revoked"); found != nil {
		t.Error("revoked session must never be returned as valid")
	}
}

func TestStore_RevokeIdempotent(t *testing.T) {
	store, repo := newTestStore()
	ctx := context.Background()

	sess, _ := store.Create(ctx, CreateParams{
		UserID: 1, RefreshToken: "tok", ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	if err := store.Revoke(ctx, sess.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	first, _ := repo.GetByID(ctx, sess.ID)
	firstRevokedAt := *first.RevokedAt

	time.Sleep(5 * time.Millisecond)
	if err := store.Revoke(ctx, sess.ID); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
	second, _ := repo.GetByID(ctx, sess.ID)
	if !second.RevokedAt.Equal(firstRevokedAt) {
		t.Error("second revoke must be a no-op")
	}
}

func TestStore_RevokeAllForUser(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	for _, tok := range []string{"t1", "t2", "t3"} {
		if _, err := store.Create(ctx, CreateParams{
			UserID: 5, RefreshToken: tok, ExpiresAt: time.Now().UTC().Add(time.Hour),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := store.RevokeAllForUser(ctx, 5); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}
	sessions, _ := store.ListForUser(ctx, 5)
	for _, s := range sessions {
		if s.RevokedAt == nil {
			t.Errorf("session %s still active after RevokeAllForUser", s.ID)
		}
	}
}

func TestStore_ListOrdering(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	tenantID := int64(3)

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		store.nowF = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		if _, err := store.Create(ctx, CreateParams{
			UserID: 8, TenantID: &tenantID, RefreshToken: "tok", ExpiresAt: base.Add(time.Hour),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	store.nowF = func() time.Time { return base.Add(time.Hour) }

	sessions, err := store.ListForTenant(ctx, tenantID)
	if err != nil {
		t.Fatalf("ListForTenant: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(sessions))
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i].CreatedAt.After(sessions[i-1].CreatedAt) {
			t.Fatal("sessions not ordered newest first")
		}
	}
}
