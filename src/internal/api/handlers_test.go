package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/mocks"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/service"
	"github.com/maksimkurb/keen-ipmon/src/internal/store"
)

const testState = `
service_order = ["wan", "lte"]

[services.wan.ipv4]
interface = "eth0"
addresses = ["192.0.2.10"]
subnet_masks = ["255.255.255.0"]
router = "192.0.2.1"

[services.wan.dns]
domain_name = "example.com"
server_addresses = ["192.0.2.53"]

[services.lte.ipv4]
interface = "usb0"
addresses = ["10.0.0.2"]
subnet_masks = ["255.255.255.0"]
router = "10.0.0.1"
`

type fakeStatusProvider struct {
	status *service.Status
	err    error
}

func (f fakeStatusProvider) Status(ctx context.Context) (*service.Status, error) {
	return f.status, f.err
}

type fakeInterfaceLister struct {
	gotStatus *service.Status
	gotIPs    bool
}

func (f *fakeInterfaceLister) GetInterfaces(status *service.Status, includeIPs bool, includeLoopback bool) ([]service.InterfaceInfo, error) {
	f.gotStatus = status
	f.gotIPs = includeIPs
	return []service.InterfaceInfo{{Index: 2, Name: "eth0", IsUp: true}}, nil
}

// testStatus evaluates testState the way the engine would.
func testStatus(t *testing.T) *service.Status {
	t.Helper()
	state, err := store.ParseStateFile([]byte(testState))
	if err != nil {
		t.Fatalf("Failed to parse state: %v", err)
	}

	resolver := mocks.NewMockInterfaceResolver(map[string]int{"eth0": 2, "usb0": 3})
	plan, err := service.NewRoutingService(resolver, nil, nil, service.Options{}).Plan(state)
	if err != nil {
		t.Fatalf("Failed to plan routes: %v", err)
	}

	return &service.Status{
		Generation: 3,
		LastPass:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Services:   []models.ServiceID{"lte", "wan"},
		Order:      models.ServiceOrder{"wan", "lte"},
		IPv4:       plan.IPv4,
		IPv6:       plan.IPv6,
		Routes:     plan.Routes,
		Resolvers:  service.NewDNSService(resolver, service.Options{}).Build(state),
		NWI: &service.NWISnapshot{
			IPv4:      plan.IPv4.PrimaryRecord(),
			Signature: "abc",
		},
		Notification: service.NotificationStatus{State: "idle", Pending: ""},
	}
}

func doRequest(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// decodeData unwraps the "data" envelope into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("Failed to decode data %q: %v", envelope.Data, err)
	}
}

func TestGetStatus(t *testing.T) {
	router := NewRouter(NewHandler(fakeStatusProvider{status: testStatus(t)}, nil, nil))

	rec := doRequest(t, router, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var resp StatusResponse
	decodeData(t, rec, &resp)

	if resp.Generation != 3 {
		t.Errorf("Expected generation 3, got %d", resp.Generation)
	}
	if resp.LastPass == nil || !resp.LastPass.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("Unexpected last pass %v", resp.LastPass)
	}
	if resp.Primary.IPv4 == nil || resp.Primary.IPv4.ServiceID != "wan" {
		t.Errorf("Expected wan to be the IPv4 primary, got %+v", resp.Primary.IPv4)
	}
	if resp.Primary.IPv6 != nil {
		t.Errorf("Expected no IPv6 primary, got %+v", resp.Primary.IPv6)
	}
	if resp.RouteCount != 4 {
		t.Errorf("Expected 4 routes, got %d", resp.RouteCount)
	}
	if resp.ResolverCount == 0 {
		t.Error("Expected resolvers to be counted")
	}
	if resp.ConfigOutdated {
		t.Error("Config cannot be outdated without a hasher")
	}
}

func TestGetStatus_BeforeFirstPass(t *testing.T) {
	router := NewRouter(NewHandler(fakeStatusProvider{status: &service.Status{}}, nil, nil))

	rec := doRequest(t, router, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"last_pass":null`) {
		t.Errorf("Expected null last_pass, got %s", rec.Body.String())
	}
}

func TestGetRoutes(t *testing.T) {
	router := NewRouter(NewHandler(fakeStatusProvider{status: testStatus(t)}, nil, nil))

	rec := doRequest(t, router, "/api/v1/routes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp RoutesResponse
	decodeData(t, rec, &resp)

	var defaults []RouteInfo
	for _, r := range resp.Routes {
		if r.Destination == "0.0.0.0/0" {
			defaults = append(defaults, r)
		}
	}
	if len(defaults) != 2 {
		t.Fatalf("Expected 2 default routes, got %+v", resp.Routes)
	}

	for _, r := range defaults {
		switch r.Interface {
		case "eth0":
			if r.Gateway != "192.0.2.1" || r.InterfaceAddress != "192.0.2.10" {
				t.Errorf("Unexpected eth0 default route %+v", r)
			}
			if strings.Contains(r.Flags, "scoped") {
				t.Errorf("Primary default route must be unscoped: %+v", r)
			}
		case "usb0":
			if !strings.Contains(r.Flags, "scoped") {
				t.Errorf("Secondary default route must be scoped: %+v", r)
			}
		default:
			t.Errorf("Unexpected default route %+v", r)
		}
	}
}

func TestGetElection(t *testing.T) {
	router := NewRouter(NewHandler(fakeStatusProvider{status: testStatus(t)}, nil, nil))

	rec := doRequest(t, router, "/api/v1/election")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		IPv4 []struct {
			ServiceID models.ServiceID `json:"service_id"`
			Primary   bool             `json:"primary"`
		} `json:"ipv4"`
		IPv6 []json.RawMessage `json:"ipv6"`
	}
	decodeData(t, rec, &resp)

	type entry struct {
		ID      models.ServiceID
		Primary bool
	}
	var got []entry
	for _, c := range resp.IPv4 {
		got = append(got, entry{c.ServiceID, c.Primary})
	}
	want := []entry{{"wan", true}, {"lte", false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected IPv4 candidates (-want +got):\n%s", diff)
	}
	if resp.IPv6 == nil || len(resp.IPv6) != 0 {
		t.Errorf("Expected an empty IPv6 list, got %v", resp.IPv6)
	}
}

func TestGetResolvers(t *testing.T) {
	t.Run("Renders the default resolver", func(t *testing.T) {
		router := NewRouter(NewHandler(fakeStatusProvider{status: testStatus(t)}, nil, nil))

		rec := doRequest(t, router, "/api/v1/resolvers")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var resp struct {
			ResolvConf string `json:"resolv_conf"`
		}
		decodeData(t, rec, &resp)
		if !strings.Contains(resp.ResolvConf, "nameserver 192.0.2.53\n") {
			t.Errorf("Unexpected resolv.conf:\n%s", resp.ResolvConf)
		}
	})

	t.Run("Not found before the first pass", func(t *testing.T) {
		router := NewRouter(NewHandler(fakeStatusProvider{status: &service.Status{}}, nil, nil))

		rec := doRequest(t, router, "/api/v1/resolvers")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}

func TestGetNWI(t *testing.T) {
	router := NewRouter(NewHandler(fakeStatusProvider{status: testStatus(t)}, nil, nil))

	rec := doRequest(t, router, "/api/v1/nwi")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp service.NWISnapshot
	decodeData(t, rec, &resp)
	want := &election.PrimaryRecord{ServiceID: "wan", InterfaceName: "eth0", Router: "192.0.2.1"}
	if diff := cmp.Diff(want, resp.IPv4); diff != "" {
		t.Errorf("Unexpected IPv4 primary (-want +got):\n%s", diff)
	}
}

func TestGetInterfaces(t *testing.T) {
	status := testStatus(t)
	lister := &fakeInterfaceLister{}
	router := NewRouter(NewHandler(fakeStatusProvider{status: status}, lister, nil))

	t.Run("Passes the engine status", func(t *testing.T) {
		rec := doRequest(t, router, "/api/v1/interfaces?ips=true")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if lister.gotStatus != status {
			t.Error("Expected the engine status to be passed to the lister")
		}
		if !lister.gotIPs {
			t.Error("Expected IP addresses to be requested")
		}

		var resp InterfacesResponse
		decodeData(t, rec, &resp)
		if len(resp.Interfaces) != 1 || resp.Interfaces[0].Name != "eth0" {
			t.Errorf("Unexpected interfaces %+v", resp.Interfaces)
		}
	})

	t.Run("Rejects a malformed flag", func(t *testing.T) {
		rec := doRequest(t, router, "/api/v1/interfaces?ips=maybe")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

func TestEngineUnavailable(t *testing.T) {
	router := NewRouter(NewHandler(fakeStatusProvider{err: context.DeadlineExceeded}, nil, nil))

	rec := doRequest(t, router, "/api/v1/primary")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error: %v", err)
	}
	if resp.Error.Code != ErrCodeUnavailable {
		t.Errorf("Expected code %s, got %s", ErrCodeUnavailable, resp.Error.Code)
	}
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name     string
		provider fakeStatusProvider
		healthy  bool
		failed   []string
	}{
		{
			name:     "Healthy after a pass",
			provider: fakeStatusProvider{status: &service.Status{Generation: 1, LastPass: time.Now()}},
			healthy:  true,
		},
		{
			name:     "No pass yet",
			provider: fakeStatusProvider{status: &service.Status{}},
			healthy:  false,
			failed:   []string{"reconciliation"},
		},
		{
			name:     "Engine stopped",
			provider: fakeStatusProvider{err: errors.New("stopped")},
			healthy:  false,
			failed:   []string{"engine", "reconciliation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(NewHandler(tt.provider, nil, nil))

			rec := doRequest(t, router, "/api/v1/health")
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", rec.Code)
			}

			var resp HealthCheckResponse
			decodeData(t, rec, &resp)
			if resp.Healthy != tt.healthy {
				t.Errorf("Expected healthy=%v, got %v", tt.healthy, resp.Healthy)
			}
			for _, name := range tt.failed {
				if resp.Checks[name].Passed {
					t.Errorf("Expected check %s to fail", name)
				}
			}
		})
	}
}

func TestPrivateSubnetOnly(t *testing.T) {
	router := NewRouter(NewHandler(fakeStatusProvider{status: &service.Status{}}, nil, nil))

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		wantCode   int
	}{
		{"Loopback", "127.0.0.1:1234", "", http.StatusOK},
		{"RFC 1918", "192.168.1.20:1234", "", http.StatusOK},
		{"IPv6 ULA", "[fd00::1]:1234", "", http.StatusOK},
		{"Public", "203.0.113.5:1234", "", http.StatusForbidden},
		{"Forwarded public", "127.0.0.1:1234", "203.0.113.5, 10.0.0.1", http.StatusForbidden},
		{"Garbage", "not-an-ip", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(NewHandler(fakeStatusProvider{status: &service.Status{}}, nil, nil))

	rec := doRequest(t, router, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "keen_ipmon_") {
		t.Error("Expected keen_ipmon metrics to be exported")
	}
}
