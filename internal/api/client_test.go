package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Config{ProcessingURL: srv.URL, RealtimeURL: srv.URL})
	return c, srv
}

func TestListDocuments(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/documents", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{
			"d1": {"doc_id":"d1","filename":"pitch.pdf","processed_date":"2026-08-01T10:00:00Z"},
			"d2": {"doc_id":"d2","filename":"10k.pdf","processed_date":"2026-08-02T09:30:00Z"}
		}`))
	}))

	docs, err := c.ListDocuments(context.Background())
	require.NoError(t, err)

	want := map[string]Document{
		"d1": {DocID: "d1", Filename: "pitch.pdf", ProcessedDate: "2026-08-01T10:00:00Z"},
		"d2": {DocID: "d2", Filename: "10k.pdf", ProcessedDate: "2026-08-02T09:30:00Z"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestUploadPDF(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/process/pdf", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "pitch.pdf", hdr.Filename)
		_, _ = w.Write([]byte(`{"status":"success","doc_id":"d1"}`))
	}))

	err := c.UploadPDF(context.Background(), "/tmp/uploads/pitch.pdf", strings.NewReader("%PDF-1.7 ..."))
	require.NoError(t, err)
}

func TestUploadMissingSuccessMarker(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"queued"}`))
	}))

	err := c.UploadPDF(context.Background(), "pitch.pdf", strings.NewReader("x"))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Message(), "did not confirm")
}

func TestClearDocuments(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/clear/documents", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","message":"cleared"}`))
	}))

	require.NoError(t, c.ClearDocuments(context.Background()))
}

func TestQueryPayload(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "d1", body["doc_id"])
		require.Equal(t, "what is the moat?", body["question"])
		require.Equal(t, float64(5), body["top_k"])
		require.Equal(t, "value", body["persona"])
		require.Equal(t, float64(1724800000000), body["timestamp"])
		_, _ = w.Write([]byte(`{"status":"ok","answers":["Strong network effects."],"citations":[{"title":"Document Analysis","source":"AI Generated"}]}`))
	}))

	resp, err := c.Query(context.Background(), "d1", "what is the moat?", 1724800000000, "value")
	require.NoError(t, err)
	require.Equal(t, []string{"Strong network effects."}, resp.Answers)
	require.Len(t, resp.Citations, 1)
}

func TestMultiQueryPayload(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query/multi", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.ElementsMatch(t, []any{"d1", "d2"}, body["doc_ids"])
		_, _ = w.Write([]byte(`{"status":"ok","answers":[]}`))
	}))

	resp, err := c.MultiQuery(context.Background(), []string{"d1", "d2"}, "revenue?", 1, "general")
	require.NoError(t, err)
	require.Empty(t, resp.Answers)
}

func TestAnalyzeInvestment(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/invest/analyze", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(5), body["top_k"])
		require.Equal(t, "Acme Robotics", body["company"])
		_, _ = w.Write([]byte(`{
			"status":"ok",
			"decision":"do_not_invest",
			"likelihood_percent":34.5,
			"rationale":"Thin margins and heavy regulatory exposure.",
			"forecast_points":["Watch Q3 unit economics","License ruling expected in October","Churn trend in enterprise accounts"],
			"company":"Acme Robotics"
		}`))
	}))

	result, err := c.AnalyzeInvestment(context.Background(), []string{"d1"}, "risk", "Acme Robotics")
	require.NoError(t, err)
	require.Equal(t, DecisionDefer, result.Decision)
	require.InDelta(t, 34.5, result.LikelihoodPercent, 0.001)
	require.Len(t, result.ForecastPoints, 3)
}

func TestAnalyzeInvestmentNotOK(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error"}`))
	}))

	_, err := c.AnalyzeInvestment(context.Background(), []string{"d1"}, "general", "")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
}

func TestErrorDetailExtraction(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Failed to clear Pathway storage"}`))
	}))

	err := c.ClearDocuments(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.Equal(t, "Failed to clear Pathway storage", apiErr.Message())
}

func TestTransportFailure(t *testing.T) {
	c := New(Config{ProcessingURL: "http://127.0.0.1:1", RealtimeURL: "http://127.0.0.1:1"})
	_, err := c.ListDocuments(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Zero(t, apiErr.Status)
	require.Contains(t, apiErr.Message(), "unreachable")
}

func TestBearerTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Config{ProcessingURL: srv.URL, RealtimeURL: srv.URL, APIKey: "sekrit"})
	_, err := c.ListDocuments(context.Background())
	require.NoError(t, err)
}

func TestLiveIndexCount(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"a":{"doc_id":"a"},"b":{"doc_id":"b"},"c":{"doc_id":"c"}}`))
	}))

	n, err := c.LiveIndexCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
}
