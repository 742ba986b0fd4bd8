package tally

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tally-service/tally/application"
	"tally-service/tally/domain"
	"tally-service/tally/infra"

	"github.com/google/uuid"
)

const (
	validGrueID    = 1
	invalidGrueID  = 100
	anyMerchandise = 3
)

var (
	validUUID   = uuid.MustParse("bb3b9185-f6a8-49eb-b5de-9fb50ff441e4")
	invalidUUID = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
)

func givenTestServer(t *testing.T, lock *uuid.UUID) (http.Handler, *infra.MemoryStatsStore) {
	t.Helper()
	var opts []infra.MemoryStoreOption
	if lock != nil {
		opts = append(opts, infra.WithLockToken(*lock))
	}
	store, err := infra.NewMemoryStore(domain.LoadingZones(), opts...)
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	stats := infra.NewMemoryStatsStore()
	api := &API{
		Service: application.TallyService{
			Store: store,
			Stats: stats,
		},
		Stats:   stats,
		Version: "1.2.3",
	}
	return api.Routes(), stats
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func grueBody(id, n int) string {
	b, _ := json.Marshal(map[string]int{"grue_id": id, "number_of_merchandise": n})
	return string(b)
}

func vehicleData(t *testing.T, h http.Handler) map[string]uint8 {
	t.Helper()
	w := do(t, h, http.MethodGet, VehiclePath, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on %s, got %d", VehiclePath, w.Code)
	}
	var resp VehicleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad vehicle json: %v", err)
	}
	return resp.VehicleData
}

func assertVehicleData(t *testing.T, got, want map[string]uint8) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for k, v := range want {
		if gv, ok := got[k]; !ok || gv != v {
			t.Fatalf("expected %s=%d, got %v", k, v, got)
		}
	}
}

func defaultRoster(overrides map[string]uint8) map[string]uint8 {
	out := map[string]uint8{"zone1": 0, "zone2": 0, "zone3": 0, "zone4": 0, "zone5": 0, "zone6": 0}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func TestPostGrueData_ValidRequestOK(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	w := do(t, h, http.MethodPost, GruePath, grueBody(validGrueID, anyMerchandise))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPostGrueData_InvalidIdentifierBadRequest(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	w := do(t, h, http.MethodPost, GruePath, grueBody(invalidGrueID, anyMerchandise))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "between 0 and 99") {
		t.Fatalf("expected range in error message, got %s", w.Body.String())
	}
}

func TestPostGrueData_MalformedBodies(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	for _, body := range []string{
		`not json`,
		`{"grue_id": 1}`,
		`{"number_of_merchandise": 1}`,
		`{"grue_id": 1, "number_of_merchandise": 256}`,
		`{"grue_id": 1, "number_of_merchandise": -1}`,
	} {
		if w := do(t, h, http.MethodPost, GruePath, body); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, w.Code)
		}
	}
}

func TestGetHealth_OK(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	if w := do(t, h, http.MethodGet, HealthPath, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetVersion_ReturnsBuildVersion(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	w := do(t, h, http.MethodGet, VersionPath, "")
	if w.Code != http.StatusOK || w.Body.String() != "1.2.3" {
		t.Fatalf("expected 200 1.2.3, got %d %q", w.Code, w.Body.String())
	}
}

func TestGetVehicleData_AfterSubmit(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	_ = do(t, h, http.MethodPost, GruePath, grueBody(validGrueID, anyMerchandise))

	assertVehicleData(t, vehicleData(t, h), defaultRoster(map[string]uint8{"zone1": anyMerchandise}))
}

func TestGetVehicleData_NewIdentifierAppears(t *testing.T) {
	h, _ := givenTestServer(t, nil)

	assertVehicleData(t, vehicleData(t, h), defaultRoster(nil))
	_ = do(t, h, http.MethodPost, GruePath, grueBody(42, anyMerchandise))
	assertVehicleData(t, vehicleData(t, h), defaultRoster(map[string]uint8{"zone42": anyMerchandise}))
}

func TestGetGrueData(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	_ = do(t, h, http.MethodPost, GruePath, grueBody(validGrueID, anyMerchandise))

	w := do(t, h, http.MethodGet, "/grue/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp GrueResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if resp.GrueID != "zone1" || resp.NumberOfMerchandise != anyMerchandise {
		t.Fatalf("unexpected response %+v", resp)
	}

	if w := do(t, h, http.MethodGet, "/grue/50", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown zone, got %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/grue/100", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid zone, got %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/grue/abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric zone, got %d", w.Code)
	}
}

func TestReset_ValidUUIDRestoresDefault(t *testing.T) {
	h, _ := givenTestServer(t, &validUUID)
	_ = do(t, h, http.MethodPost, GruePath, grueBody(validGrueID, anyMerchandise))
	_ = do(t, h, http.MethodPost, GruePath, grueBody(42, anyMerchandise))

	w := do(t, h, http.MethodPost, ResetPath, `{"uuid":"`+validUUID.String()+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	assertVehicleData(t, vehicleData(t, h), defaultRoster(nil))
}

func TestReset_InvalidUUIDRejected(t *testing.T) {
	h, _ := givenTestServer(t, &validUUID)
	_ = do(t, h, http.MethodPost, GruePath, grueBody(validGrueID, anyMerchandise))

	w := do(t, h, http.MethodPost, ResetPath, `{"uuid":"`+invalidUUID.String()+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	assertVehicleData(t, vehicleData(t, h), defaultRoster(map[string]uint8{"zone1": anyMerchandise}))
}

func TestReset_MissingUUIDRejectedWhenLocked(t *testing.T) {
	h, _ := givenTestServer(t, &validUUID)
	if w := do(t, h, http.MethodPost, ResetPath, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReset_NoInitialUUIDRestoresDefault(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	_ = do(t, h, http.MethodPost, GruePath, grueBody(validGrueID, anyMerchandise))

	if w := do(t, h, http.MethodPost, ResetPath, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	assertVehicleData(t, vehicleData(t, h), defaultRoster(nil))
}

var unusableResetBodies = []string{`{"uuid":"nope"}`, `{}`, `[`, `{"uuid":null}`}

func TestReset_UnusableBodyResetsWhenUnlocked(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	for _, body := range unusableResetBodies {
		_ = do(t, h, http.MethodPost, GruePath, grueBody(validGrueID, anyMerchandise))
		_ = do(t, h, http.MethodPost, GruePath, grueBody(42, anyMerchandise))

		if w := do(t, h, http.MethodPost, ResetPath, body); w.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d: %s", body, w.Code, w.Body.String())
		}
		assertVehicleData(t, vehicleData(t, h), defaultRoster(nil))
	}
}

func TestReset_UnusableBodyRejectedWhenLocked(t *testing.T) {
	h, _ := givenTestServer(t, &validUUID)
	_ = do(t, h, http.MethodPost, GruePath, grueBody(validGrueID, anyMerchandise))

	for _, body := range unusableResetBodies {
		if w := do(t, h, http.MethodPost, ResetPath, body); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, w.Code)
		}
		assertVehicleData(t, vehicleData(t, h), defaultRoster(map[string]uint8{"zone1": anyMerchandise}))
	}
}

func TestGetStats_ReportsCounters(t *testing.T) {
	h, _ := givenTestServer(t, nil)
	_ = do(t, h, http.MethodPost, GruePath, grueBody(validGrueID, anyMerchandise))
	_ = do(t, h, http.MethodPost, GruePath, grueBody(invalidGrueID, anyMerchandise))

	w := do(t, h, http.MethodGet, StatsPath, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var rep infra.StatsReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got := rep.ByOp[domain.OpSubmit]; got.Accepted != 1 || got.Rejected != 1 {
		t.Fatalf("expected submit 1/1, got %+v", got)
	}
}

func TestGetStats_NotFoundWithoutReporter(t *testing.T) {
	store, err := infra.NewMemoryStore(domain.Teams())
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	api := &API{Service: application.TallyService{Store: store}}
	if w := do(t, api.Routes(), http.MethodGet, StatsPath, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
