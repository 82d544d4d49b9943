package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	devicedomain "timetrack-auth/internal/device/domain"
	"timetrack-auth/internal/deviceauth/domain"
	"timetrack-auth/internal/security"
)

type memCodeRepo struct {
	mu sync.Mutex
	m  map[string]*domain.AuthorizationCode // keyed by row id
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{m: make(map[string]*domain.AuthorizationCode)}
}

func (r *memCodeRepo) Create(ctx context.Context, c *domain.AuthorizationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c2 := *c
	r.m[c.ID] = &c2
	return nil
}

func (r *memCodeRepo) GetByCodeAndDevice(ctx context.Context, code, deviceID string) (*domain.AuthorizationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.m {
		if c.Code == code && c.DeviceID == deviceID {
			c2 := *c
			return &c2, nil
		}
	}
	return nil, nil
}

func (r *memCodeRepo) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[id]
	if !ok || c.UsedAt != nil {
		return false, nil
	}
	t := at
	c.UsedAt = &t
	return true, nil
}

func (r *memCodeRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.m {
		if c.ExpiresAt.Before(now) {
			delete(r.m, id)
			n++
		}
	}
	return n, nil
}

type memRegistry struct {
	mu      sync.Mutex
	nextID  int64
	devices map[string]*devicedomain.Device
}

func newMemRegistry() *memRegistry {
	return &memRegistry{nextID: 1, devices: make(map[string]*devicedomain.Device)}
}

func (r *memRegistry) RegisterOrAuthorize(ctx context.Context, userID, tenantID int64, deviceID, name string) (*devicedomain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if d, ok := r.devices[deviceID]; ok {
		d.IsAuthorized = true
		d.LastSeenAt = &now
		if name != "" {
			d.Name = name
		}
		return d, nil
	}
	d := &devicedomain.Device{
		ID: r.nextID, DeviceID: deviceID, UserID: userID, TenantID: tenantID,
		Name: name, IsAuthorized: true, LastSeenAt: &now, CreatedAt: now,
	}
	r.nextID++
	r.devices[deviceID] = d
	return d, nil
}

func newTestService() (*Service, *memCodeRepo, *memRegistry) {
	codes := newMemCodeRepo()
	registry := newMemRegistry()
	return NewService(codes, registry, security.NewTestTokenProvider()), codes, registry
}

func ids(userID, tenantID int64) (*int64, *int64) {
	return &userID, &tenantID
}

func TestValidateRedirectURI(t *testing.T) {
	valid := []string{"http://localhost:8080/callback", "https://localhost:9999/cb", "http://localhost:80/"}
	for _, uri := range valid {
		if err := ValidateRedirectURI(uri); err != nil {
			t.Errorf("ValidateRedirectURI(%q) = %v, want nil", uri, err)
		}
	}
	invalid := []string{
		"http://evil.example/callback",
		"https://attacker.io/localhost:",
		"http://localhost.evil.com:8080/cb",
		"ftp://localhost:21/x",
		"",
	}
	for _, uri := range invalid {
		if err := ValidateRedirectURI(uri); !errors.Is(err, ErrInvalidRedirectURI) {
			t.Errorf("ValidateRedirectURI(%q) = %v, want ErrInvalidRedirectURI", uri, err)
		}
	}
}

func TestService_CreateCodeRejectsBadRedirect(t *testing.T) {
	svc, codes, _ := newTestService()
	userID, tenantID := ids(42, 7)

	_, err := svc.CreateCode(context.Background(), "dev1", userID, tenantID, "http://evil.example/callback", "")
	if !errors.Is(err, ErrInvalidRedirectURI) {
		t.Fatalf("CreateCode: want ErrInvalidRedirectURI, got %v", err)
	}
	if len(codes.m) != 0 {
		t.Error("no state may be created for a rejected redirect target")
	}
}

func TestService_CreateAndExchange(t *testing.T) {
	svc, codes, registry := newTestService()
	ctx := context.Background()
	userID, tenantID := ids(42, 7)

	code, err := svc.CreateCode(ctx, "dev1", userID, tenantID, "http://localhost:8080/callback", "workstation")
	if err != nil {
		t.Fatalf("CreateCode: %v", err)
	}
	if len(code) != 64 {
		t.Errorf("code length = %d, want 64 hex chars", len(code))
	}

	res, err := svc.Exchange(ctx, code, "dev1")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if res.AccessToken == "" || res.DeviceID != "dev1" {
		t.Fatalf("bad exchange result: %+v", res)
	}
	wantSecs := int64(security.DeviceTokenTTL / time.Second)
	if res.ExpiresIn < wantSecs-60 || res.ExpiresIn > wantSecs+60 {
		t.Errorf("ExpiresIn = %d, want ~%d (30 days)", res.ExpiresIn, wantSecs)
	}
	if !res.Device.IsAuthorized {
		t.Error("exchange must authorize the device")
	}

	payload, err := security.NewTestTokenProvider().Verify(res.AccessToken)
	if err != nil {
		t.Fatalf("Verify device token: %v", err)
	}
	dp, ok := payload.(security.DevicePayload)
	if !ok {
		t.Fatalf("payload %T, want DevicePayload", payload)
	}
	if dp.DeviceID != "dev1" || dp.UserID != 42 || dp.TenantID != 7 {
		t.Errorf("device payload = %+v", dp)
	}

	// usedAt recorded on the row.
	for _, c := range codes.m {
		if c.UsedAt == nil {
			t.Error("code not marked used")
		}
	}
	if len(registry.devices) != 1 {
		t.Errorf("registered %d devices, want 1", len(registry.devices))
	}
}

func TestService_ExchangeSecondCallAlreadyUsed(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	userID, tenantID := ids(42, 7)

	code, _ := svc.CreateCode(ctx, "dev1", userID, tenantID, "http://localhost:8080/callback", "")
	if _, err := svc.Exchange(ctx, code, "dev1"); err != nil {
		t.Fatalf("first Exchange: %v", err)
	}
	if _, err := svc.Exchange(ctx, code, "dev1"); !errors.Is(err, ErrCodeAlreadyUsed) {
		t.Fatalf("second Exchange: want ErrCodeAlreadyUsed, got %v", err)
	}
}

func TestService_ExchangeConcurrentSingleWinner(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	userID, tenantID := ids(42, 7)

	code, _ := svc.CreateCode(ctx, "dev1", userID, tenantID, "http://localhost:8080/callback", "")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = svc.Exchange(ctx, code, "dev1")
		}(i)
	}
	wg.Wait()

	wins, used := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrCodeAlreadyUsed):
			used++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("%d exchanges succeeded, exactly one must win", wins)
	}
	if used != attempts-1 {
		t.Errorf("%d exchanges saw AlreadyUsed, want %d", used, attempts-1)
	}
}

func TestService_ExchangeExpiryBoundary(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	userID, tenantID := ids(42, 7)

	start := time.Now().UTC()
	svc.nowF = func() time.Time { return start }
	code, err := svc.CreateCode(ctx, "dev1", userID, tenantID, "http://localhost:8080/callback", "")
	if err != nil {
		t.Fatalf("CreateCode: %v", err)
	}

	svc.nowF = func() time.Time { return start.Add(9*time.Minute + 59*time.Second) }
	if _, err := svc.Exchange(ctx, code, "dev1"); err != nil {
		t.Fatalf("Exchange at T+9m59s: %v", err)
	}

	code2, _ := svc.CreateCode(ctx, "dev2", userID, tenantID, "http://localhost:8080/callback", "")
	svc.nowF = func() time.Time { return start.Add(9*time.Minute + 59*time.Second).Add(10*time.Minute + 1*time.Second) }
	if _, err := svc.Exchange(ctx, code2, "dev2"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("Exchange at T+10m1s: want ErrCodeExpired, got %v", err)
	}
}

func TestService_ExchangeNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	userID, tenantID := ids(42, 7)

	if _, err := svc.Exchange(ctx, "no-such-code", "dev1"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("unknown code: want ErrCodeNotFound, got %v", err)
	}

	// Right code, wrong device.
	code, _ := svc.CreateCode(ctx, "dev1", userID, tenantID, "http://localhost:8080/callback", "")
	if _, err := svc.Exchange(ctx, code, "other-device"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("wrong device: want ErrCodeNotFound, got %v", err)
	}
}

func TestService_ExchangeMissingAssociation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	code, err := svc.CreateCode(ctx, "dev1", nil, nil, "http://localhost:8080/callback", "")
	if err != nil {
		t.Fatalf("CreateCode: %v", err)
	}
	if _, err := svc.Exchange(ctx, code, "dev1"); !errors.Is(err, ErrMissingAssociation) {
		t.Errorf("want ErrMissingAssociation, got %v", err)
	}
}

func TestService_CleanupExpiredCodes(t *testing.T) {
	svc, codes, _ := newTestService()
	ctx := context.Background()
	userID, tenantID := ids(1, 1)

	start := time.Now().UTC()
	svc.nowF = func() time.Time { return start }
	if _, err := svc.CreateCode(ctx, "old", userID, tenantID, "http://localhost:1/", ""); err != nil {
		t.Fatalf("CreateCode: %v", err)
	}

	svc.nowF = func() time.Time { return start.Add(5 * time.Minute) }
	if _, err := svc.CreateCode(ctx, "fresh", userID, tenantID, "http://localhost:1/", ""); err != nil {
		t.Fatalf("CreateCode: %v", err)
	}

	svc.nowF = func() time.Time { return start.Add(12 * time.Minute) }
	n, err := svc.CleanupExpiredCodes(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredCodes: %v", err)
	}
	if n != 1 {
		t.Errorf("cleaned %d codes, want 1", n)
	}
	if len(codes.m) != 1 {
		t.Errorf("%d codes remain, want 1", len(codes.m))
	}
}
