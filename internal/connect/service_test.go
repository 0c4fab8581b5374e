package connect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/velvetrow/salon-platform/internal/clients"
	"github.com/velvetrow/salon-platform/internal/identity"
	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/internal/stylists"
)

type fakeMerchantAPI struct {
	merchant    *square.Merchant
	merchantErr error
	locations   []square.Location
}

func (f *fakeMerchantAPI) GetMerchant(context.Context, string, square.Environment, string) (*square.Merchant, error) {
	return f.merchant, f.merchantErr
}

func (f *fakeMerchantAPI) ListLocations(context.Context, string, square.Environment) ([]square.Location, error) {
	return f.locations, nil
}

type fakeConnectionStore struct {
	mu    sync.Mutex
	saved []*Connection
}

func (f *fakeConnectionStore) Save(_ context.Context, conn *Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, conn)
	return nil
}

func (f *fakeConnectionStore) Get(_ context.Context, tenantID string) (*Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].TenantID == tenantID {
			return f.saved[i], nil
		}
	}
	return nil, ErrNotConnected
}

func (f *fakeConnectionStore) Delete(context.Context, string) error { return nil }

type fakeSyncAPI struct {
	customers   []square.Customer
	customerErr error
	members     []square.TeamMember
	memberErr   error
}

func (f *fakeSyncAPI) ListCustomers(context.Context, string, square.Environment) ([]square.Customer, error) {
	return f.customers, f.customerErr
}

func (f *fakeSyncAPI) SearchTeamMembers(context.Context, string, square.Environment, string) ([]square.TeamMember, error) {
	return f.members, f.memberErr
}

type memoryClientStore struct {
	mu   sync.Mutex
	rows map[string]clients.Client // keyed tenant|external id
}

func newMemoryClientStore() *memoryClientStore {
	return &memoryClientStore{rows: make(map[string]clients.Client)}
}

func (m *memoryClientStore) UpsertRemote(_ context.Context, tenantID string, c clients.Client) (*clients.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.TenantID = tenantID
	m.rows[tenantID+"|"+c.ExternalID] = c
	return &c, nil
}

type memoryStylistStore struct {
	mu   sync.Mutex
	rows map[string]stylists.Stylist
}

func newMemoryStylistStore() *memoryStylistStore {
	return &memoryStylistStore{rows: make(map[string]stylists.Stylist)}
}

func (m *memoryStylistStore) UpsertRemote(_ context.Context, tenantID string, s stylists.Stylist) (*stylists.Stylist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.TenantID = tenantID
	m.rows[tenantID+"|"+s.ID] = s
	return &s, nil
}

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "sq0atp-secret",
			"refresh_token": "sq0rtp-secret",
			"merchant_id":   "MERCH-1",
			"expires_at":    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

type syncHarness struct {
	clients  *memoryClientStore
	stylists *memoryStylistStore
	done     chan []error
}

func newService(t *testing.T, api *fakeMerchantAPI, syncAPI *fakeSyncAPI, store ConnectionStore, ids identity.Provider) (*Service, *syncHarness) {
	t.Helper()
	h := &syncHarness{
		clients:  newMemoryClientStore(),
		stylists: newMemoryStylistStore(),
		done:     make(chan []error, 4),
	}
	syncer := NewSyncer(syncAPI, h.clients, h.stylists, nil,
		WithFinishCallback(func(_ string, errs []error) { h.done <- errs }))
	oauth := NewOAuthService(testConfig(), nil, WithOAuthBaseURL(tokenServer(t).URL))
	return NewService(oauth, api, store, ids, syncer, nil), h
}

func (h *syncHarness) wait(t *testing.T) []error {
	t.Helper()
	select {
	case errs := <-h.done:
		return errs
	case <-time.After(5 * time.Second):
		t.Fatal("background sync did not finish")
		return nil
	}
}

func TestCompleteConnectsAndSyncs(t *testing.T) {
	api := &fakeMerchantAPI{
		merchant:  &square.Merchant{ID: "MERCH-1", BusinessName: "Velvet Row"},
		locations: []square.Location{{ID: "loc-closed", Status: "INACTIVE"}, {ID: "loc-1", Status: "ACTIVE"}},
	}
	syncAPI := &fakeSyncAPI{
		customers: []square.Customer{{ID: "cust-1", GivenName: "Ada", FamilyName: "Lovelace"}},
		members:   []square.TeamMember{{ID: "tm-1", GivenName: "Rosa", IsOwner: true}},
	}
	store := &fakeConnectionStore{}
	svc, harness := newService(t, api, syncAPI, store, identity.NewMemoryProvider())

	result, err := svc.Complete(context.Background(), "salon-1", "code-1")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if result.MerchantName != "Velvet Row" || result.LocationID != "loc-1" {
		t.Fatalf("result = %+v", result)
	}

	if errs := harness.wait(t); len(errs) != 0 {
		t.Fatalf("sync errors: %v", errs)
	}
	if _, ok := harness.clients.rows["salon-1|cust-1"]; !ok {
		t.Error("customer not mirrored")
	}
	if got := harness.stylists.rows["salon-1|tm-1"]; got.Role != stylists.RoleOwner {
		t.Errorf("stylist = %+v", got)
	}

	conn := store.saved[0]
	if conn.AccessToken != "sq0atp-secret" || conn.Environment != square.EnvSandbox {
		t.Errorf("connection = %+v", conn)
	}
}

func TestCompleteMerchantLookupFallback(t *testing.T) {
	api := &fakeMerchantAPI{merchantErr: errors.New("boom")}
	store := &fakeConnectionStore{}
	svc, harness := newService(t, api, &fakeSyncAPI{}, store, identity.NewMemoryProvider())

	result, err := svc.Complete(context.Background(), "salon-1", "code-1")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if result.MerchantName != "Square Merchant" {
		t.Errorf("merchant name = %q", result.MerchantName)
	}
	harness.wait(t)
}

func TestCompleteReconnectReusesAccount(t *testing.T) {
	api := &fakeMerchantAPI{merchant: &square.Merchant{ID: "MERCH-1", BusinessName: "Velvet Row"}}
	store := &fakeConnectionStore{}
	ids := identity.NewMemoryProvider()
	svc, harness := newService(t, api, &fakeSyncAPI{}, store, ids)

	first, err := svc.Complete(context.Background(), "salon-1", "code-1")
	if err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	harness.wait(t)

	second, err := svc.Complete(context.Background(), "salon-1", "code-2")
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	harness.wait(t)

	if first.AccountID != second.AccountID {
		t.Errorf("reconnect minted a new account: %q vs %q", first.AccountID, second.AccountID)
	}
}

func TestSyncTeamFailureDoesNotBlockCustomers(t *testing.T) {
	api := &fakeMerchantAPI{merchant: &square.Merchant{ID: "MERCH-1", BusinessName: "Velvet Row"}}
	syncAPI := &fakeSyncAPI{
		customers: []square.Customer{{ID: "cust-1", GivenName: "Ada"}},
		memberErr: errors.New("team endpoint down"),
	}
	store := &fakeConnectionStore{}
	svc, harness := newService(t, api, syncAPI, store, identity.NewMemoryProvider())

	if _, err := svc.Complete(context.Background(), "salon-1", "code-1"); err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	errs := harness.wait(t)
	if len(errs) != 1 {
		t.Fatalf("want exactly one sync failure, got %v", errs)
	}
	var syncErr *SyncError
	if !errors.As(errs[0], &syncErr) || syncErr.Resource != "team_members" {
		t.Fatalf("failure = %v", errs[0])
	}
	if _, ok := harness.clients.rows["salon-1|cust-1"]; !ok {
		t.Error("customer sync should have completed despite team failure")
	}
}

func TestResyncRequiresConnection(t *testing.T) {
	api := &fakeMerchantAPI{merchant: &square.Merchant{ID: "MERCH-1"}}
	store := &fakeConnectionStore{}
	svc, _ := newService(t, api, &fakeSyncAPI{}, store, identity.NewMemoryProvider())

	if err := svc.Resync(context.Background(), "salon-unknown"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("want ErrNotConnected, got %v", err)
	}
}
