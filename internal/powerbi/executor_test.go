package powerbi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newFakeAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(StaticTokenProvider{Token: "test-token"}, srv.URL)
}

func queryResponse(t *testing.T, rows []map[string]any) []byte {
	t.Helper()
	payload := map[string]any{
		"results": []map[string]any{
			{"tables": []map[string]any{{"rows": rows}}},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestExecuteWithoutIdentifiersSkipsNetwork(t *testing.T) {
	called := false
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	exec := NewQueryExecutor(client, "", "")

	result := exec.Execute(context.Background(), "EVALUATE Sales")
	if !strings.HasPrefix(result, "Error:") {
		t.Fatalf("expected configuration error, got %q", result)
	}
	if !strings.Contains(result, "POWERBI_WORKSPACE_ID") {
		t.Fatalf("error should name the missing variables: %q", result)
	}
	if called {
		t.Fatalf("no request should be made without identifiers")
	}
}

func TestExecuteRendersRows(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "/groups/ws-1/datasets/ds-1/executeQueries") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body struct {
			Queries []struct {
				Query string `json:"query"`
			} `json:"queries"`
			SerializerSettings struct {
				IncludeNulls bool `json:"includeNulls"`
			} `json:"serializerSettings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if len(body.Queries) != 1 || body.Queries[0].Query != "EVALUATE Sales" {
			t.Errorf("unexpected queries payload: %+v", body.Queries)
		}
		if !body.SerializerSettings.IncludeNulls {
			t.Errorf("includeNulls should be set")
		}
		w.Write(queryResponse(t, []map[string]any{{"Region": "West", "Total": 42.0}}))
	})
	exec := NewQueryExecutor(client, "ws-1", "ds-1")

	result := exec.Execute(context.Background(), "EVALUATE Sales")
	if !strings.Contains(result, `"Region": "West"`) {
		t.Fatalf("rows missing from result: %q", result)
	}
	if !json.Valid([]byte(result)) {
		t.Fatalf("result should be valid JSON: %q", result)
	}
}

func TestExecuteEmptyRows(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(queryResponse(t, []map[string]any{}))
	})
	exec := NewQueryExecutor(client, "ws-1", "ds-1")

	if got := exec.Execute(context.Background(), "EVALUATE Empty"); got != "No rows returned" {
		t.Fatalf("want %q, got %q", "No rows returned", got)
	}
}

func TestExecuteNoResults(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	})
	exec := NewQueryExecutor(client, "ws-1", "ds-1")

	if got := exec.Execute(context.Background(), "EVALUATE X"); got != "No results returned" {
		t.Fatalf("want %q, got %q", "No results returned", got)
	}
}

func TestExecuteNoTables(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"tables": []}]}`))
	})
	exec := NewQueryExecutor(client, "ws-1", "ds-1")

	if got := exec.Execute(context.Background(), "EVALUATE X"); got != "No tables returned" {
		t.Fatalf("want %q, got %q", "No tables returned", got)
	}
}

func TestExecuteRemoteFailure(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"DAX_ERROR"}}`))
	})
	exec := NewQueryExecutor(client, "ws-1", "ds-1")

	result := exec.Execute(context.Background(), "EVALUATE Broken")
	if !strings.HasPrefix(result, "Error executing DAX query:") {
		t.Fatalf("expected remote error prefix, got %q", result)
	}
	if !strings.Contains(result, "DAX_ERROR") {
		t.Fatalf("expected body to pass through, got %q", result)
	}
}

func TestExecuteInBandError(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"error": {"message": "column not found"}}]}`))
	})
	exec := NewQueryExecutor(client, "ws-1", "ds-1")

	result := exec.Execute(context.Background(), "EVALUATE Missing")
	if result != "Error: column not found" {
		t.Fatalf("want in-band error text, got %q", result)
	}
}
