package powerbi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestGenerateEmbedTokenFullDescriptor(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/GenerateToken"):
			w.Write([]byte(`{"token":"embed-abc","tokenId":"tid","expiration":"2026-08-30T12:00:00Z"}`))
		case strings.HasSuffix(r.URL.Path, "/pages"):
			w.Write([]byte(`{"value":[{"name":"ReportSection1","displayName":"Overview","order":0}]}`))
		case strings.Contains(r.URL.Path, "/reports/"):
			w.Write([]byte(`{"id":"rep-1","name":"Sales Report","embedUrl":"https://app.powerbi.com/reportEmbed?reportId=rep-1"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	svc := NewTokenService(client, "rep-1", "ws-1", nil)

	desc, err := svc.GenerateEmbedToken(context.Background(), "rep-1", "ws-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if desc.EmbedToken != "embed-abc" {
		t.Fatalf("unexpected token %q", desc.EmbedToken)
	}
	if desc.ReportName != "Sales Report" {
		t.Fatalf("unexpected report name %q", desc.ReportName)
	}
	if len(desc.Pages) != 1 || desc.Pages[0].DisplayName != "Overview" {
		t.Fatalf("unexpected pages %+v", desc.Pages)
	}
	if len(desc.Visuals) != 0 || desc.Visuals == nil {
		t.Fatalf("visuals must be present and empty, got %+v", desc.Visuals)
	}
	if desc.VisualDiscoveryNote == "" {
		t.Fatalf("expected discovery note")
	}
}

func TestGenerateEmbedTokenDegradesOnMetadataFailure(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/GenerateToken"):
			w.Write([]byte(`{"token":"embed-abc","tokenId":"tid","expiration":"2026-08-30T12:00:00Z"}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":"Forbidden"}}`))
		}
	})
	svc := NewTokenService(client, "rep-1", "ws-1", nil)

	desc, err := svc.GenerateEmbedToken(context.Background(), "rep-1", "ws-1")
	if err != nil {
		t.Fatalf("metadata failure must not fail the mint: %v", err)
	}
	if desc.EmbedToken != "embed-abc" {
		t.Fatalf("token must survive the degrade, got %q", desc.EmbedToken)
	}
	want := "https://app.powerbi.com/reportEmbed?reportId=rep-1&groupId=ws-1"
	if desc.EmbedURL != want {
		t.Fatalf("want synthesized url %q, got %q", want, desc.EmbedURL)
	}
	if desc.ReportName != "Unknown" {
		t.Fatalf("unexpected report name %q", desc.ReportName)
	}
}

func TestGenerateEmbedTokenMintFailure(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"TokenExpired"}}`))
	})
	svc := NewTokenService(client, "rep-1", "ws-1", nil)

	if _, err := svc.GenerateEmbedToken(context.Background(), "rep-1", "ws-1"); err == nil {
		t.Fatalf("expected mint failure to propagate")
	}
}

func TestRefreshPublishesDescriptor(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/GenerateToken"):
			w.Write([]byte(`{"token":"embed-xyz","tokenId":"tid","expiration":"2026-08-30T12:00:00Z"}`))
		case strings.HasSuffix(r.URL.Path, "/pages"):
			w.Write([]byte(`{"value":[]}`))
		default:
			w.Write([]byte(`{"id":"rep-1","name":"Sales Report","embedUrl":"https://example.test/embed"}`))
		}
	})
	svc := NewTokenService(client, "rep-1", "", nil)

	if cur := svc.Current(context.Background()); cur != nil {
		t.Fatalf("no descriptor expected before refresh")
	}
	desc, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	cur := svc.Current(context.Background())
	if cur == nil || cur.EmbedToken != desc.EmbedToken {
		t.Fatalf("current descriptor not published")
	}

	st := svc.Status()
	if !st.Configured || !st.HasToken {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.LastError != "" {
		t.Fatalf("expected clean status, got error %q", st.LastError)
	}
}

func TestRefreshUnconfigured(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	svc := NewTokenService(client, "", "", nil)

	if _, err := svc.Refresh(context.Background()); err == nil {
		t.Fatalf("refresh without report id must fail")
	}
	if svc.Configured() {
		t.Fatalf("service without report id must not report configured")
	}
}

func TestRefreshRecordsLastError(t *testing.T) {
	client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`bad request`))
	})
	svc := NewTokenService(client, "rep-1", "", nil)

	if _, err := svc.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh failure")
	}
	if st := svc.Status(); st.LastError == "" {
		t.Fatalf("failure must be visible in status")
	}
}

type failingProvider struct{}

func (failingProvider) GetToken(ctx context.Context, scope string) (string, error) {
	return "", errors.Join(ErrAuthentication, errors.New("chain exhausted"))
}

func TestAuthenticationErrorPropagates(t *testing.T) {
	client := NewClient(failingProvider{}, "http://127.0.0.1:0")
	svc := NewTokenService(client, "rep-1", "", nil)

	_, err := svc.GenerateEmbedToken(context.Background(), "rep-1", "")
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("want ErrAuthentication, got %v", err)
	}
}
