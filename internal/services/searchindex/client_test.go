package searchindex_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"variantshare/internal/services"
	"variantshare/internal/services/searchindex"
)

func newIndexServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = io.WriteString(w, `{"version":{"number":"8.17.0"}}`)
			return
		}
		if r.URL.Path != "/screenshots/_search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchParsesHits(t *testing.T) {
	body := `{"hits":{"hits":[
		{"_source":{"timestamp":1700000000001,"screenshot":"iVBORw0KGgowMDAw","description":"one","appType":"web"}},
		{"_source":{"hash":"abc","applicationType":"SAP"}},
		{"_source":{"description":"orphan"}}
	]}}`
	var query map[string]any
	srv := newIndexServer(t, http.StatusOK, body, &query)

	client, err := searchindex.NewClient(searchindex.Config{Addresses: []string{srv.URL}, Index: "screenshots", MaxResults: 50})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	result, err := client.Fetch(context.Background(), searchindex.Scope{ProcessID: "p1", VariantID: "v1"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Total != 3 || len(result.Records) != 2 || len(result.Rejected) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Records[0].Timestamp != 1700000000001 || result.Records[1].AppType != "sap" {
		t.Fatalf("unexpected records: %+v", result.Records)
	}
	if query["size"].(float64) != 50 {
		t.Fatalf("unexpected size in query: %v", query)
	}
	encoded, _ := json.Marshal(query)
	if !strings.Contains(string(encoded), `"processId":"p1"`) || !strings.Contains(string(encoded), `"variantId":"v1"`) {
		t.Fatalf("query missing scope filters: %s", encoded)
	}
}

func TestFetchClassifiesErrors(t *testing.T) {
	cases := []struct {
		status int
		marker error
	}{
		{http.StatusUnauthorized, services.ErrUnauthorized},
		{http.StatusInternalServerError, services.ErrExternalService},
	}
	for _, tc := range cases {
		srv := newIndexServer(t, tc.status, `{"error":"nope"}`, nil)
		client, err := searchindex.NewClient(searchindex.Config{Addresses: []string{srv.URL}, Index: "screenshots"})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		_, err = client.Fetch(context.Background(), searchindex.Scope{VariantID: "v1"})
		if !errors.Is(err, tc.marker) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.marker, err)
		}
	}
}

func TestFetchRequiresScope(t *testing.T) {
	client, err := searchindex.NewClient(searchindex.Config{Addresses: []string{"http://127.0.0.1:1"}, Index: "screenshots"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Fetch(context.Background(), searchindex.Scope{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresIndex(t *testing.T) {
	if _, err := searchindex.NewClient(searchindex.Config{Addresses: []string{"http://127.0.0.1:9200"}}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
