package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hustle/internal/config"
	"hustle/internal/econ"
	"hustle/internal/ledger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := econ.NewService(ledger.NewMemStore(), nil, nil)
	return New(config.APIConfig{CompanyCost: 100_000}, nil, svc)
}

func do(t *testing.T, s *Server, method, path, account, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if account != "" {
		req.Header.Set("X-Account-ID", account)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestMissingAccountHeader(t *testing.T) {
	s := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/v1/balance", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHealthzNeedsNoAccount(t *testing.T) {
	s := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"balance ok", http.MethodGet, "/v1/balance", "", http.StatusOK},
		{"unknown job", http.MethodPost, "/v1/jobs/apply", `{"job":"Astronaut"}`, http.StatusBadRequest},
		{"work without job", http.MethodPost, "/v1/work", "", http.StatusUnprocessableEntity},
		{"create company broke", http.MethodPost, "/v1/companies", `{"name":"Acme"}`, http.StatusUnprocessableEntity},
		{"malformed body", http.MethodPost, "/v1/jobs/apply", `{"job":`, http.StatusBadRequest},
		{"leave without company", http.MethodPost, "/v1/companies/leave", "", http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		if rec := do(t, s, tc.method, tc.path, "alice", tc.body); rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d (body %s)", tc.name, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestConflictStatus(t *testing.T) {
	s := serverWithCompany(t, "Acme")
	rec := do(t, s, http.MethodPost, "/v1/companies", "bob", `{"name":"acme"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
}

// serverWithCompany builds a server whose store already holds one company.
func serverWithCompany(t *testing.T, name string) *Server {
	t.Helper()
	store := ledger.NewMemStore()
	snap := ledger.NewSnapshot()
	snap.Accounts["founder"] = &ledger.Account{ID: "founder", Energy: ledger.MaxEnergy, CompanyID: "c1"}
	snap.Companies["c1"] = &ledger.Company{ID: "c1", Name: name, OwnerID: "founder", Members: []string{"founder"}}
	if err := store.Save(t.Context(), snap); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := econ.NewService(store, nil, nil)
	return New(config.APIConfig{CompanyCost: 0}, nil, svc)
}
