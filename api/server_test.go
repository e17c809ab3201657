package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/comsum/collector"
	"github.com/hazyhaar/comsum/summarize"
)

// stubRunner returns canned results per mode.
type stubRunner struct {
	quickRes *collector.Result
	quickErr error
	deepRes  *collector.Result
	deepErr  error
	busy     bool
}

func (s *stubRunner) Quick(ctx context.Context) (*collector.Result, error) {
	return s.quickRes, s.quickErr
}

func (s *stubRunner) Deep(ctx context.Context) (*collector.Result, error) {
	return s.deepRes, s.deepErr
}

func (s *stubRunner) Busy() bool { return s.busy }

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := NewServer(&stubRunner{}, nil)
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestStatusReportsBusy(t *testing.T) {
	srv := NewServer(&stubRunner{busy: true}, nil)
	rec := doRequest(t, srv, http.MethodGet, "/v1/status", "")

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body["busy"] {
		t.Error("busy runner reported idle")
	}
}

func TestSummarizeQuickSuccess(t *testing.T) {
	srv := NewServer(&stubRunner{
		quickRes: &collector.Result{Mode: collector.ModeQuick, CommentCount: 3, Summary: "fine"},
	}, nil)

	rec := doRequest(t, srv, http.MethodPost, "/v1/summaries", `{"mode":"quick"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var res collector.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.CommentCount != 3 || res.Summary != "fine" {
		t.Errorf("result = %+v", res)
	}
}

func TestSummarizeDefaultsToQuick(t *testing.T) {
	srv := NewServer(&stubRunner{
		quickRes: &collector.Result{Mode: collector.ModeQuick, CommentCount: 1, Summary: "s"},
	}, nil)

	rec := doRequest(t, srv, http.MethodPost, "/v1/summaries", "")
	if rec.Code != http.StatusOK {
		t.Errorf("empty body status = %d, want 200 (quick default)", rec.Code)
	}
}

func TestSummarizeDeepRoute(t *testing.T) {
	srv := NewServer(&stubRunner{
		deepRes: &collector.Result{Mode: collector.ModeDeep, CommentCount: 9, Summary: "deep"},
	}, nil)

	rec := doRequest(t, srv, http.MethodPost, "/v1/summaries", `{"mode":"deep"}`)

	var res collector.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Mode != collector.ModeDeep || res.CommentCount != 9 {
		t.Errorf("result = %+v", res)
	}
}

func TestSummarizeErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"busy", collector.ErrBusy, http.StatusConflict},
		{"no comments", collector.ErrNoComments, http.StatusNotFound},
		{"timeout", summarize.ErrTimeout, http.StatusGatewayTimeout},
		{"provider", context.DeadlineExceeded, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := NewServer(&stubRunner{quickErr: tc.err}, nil)
			rec := doRequest(t, srv, http.MethodPost, "/v1/summaries", `{"mode":"quick"}`)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestSummarizeRejectsUnknownMode(t *testing.T) {
	srv := NewServer(&stubRunner{}, nil)
	rec := doRequest(t, srv, http.MethodPost, "/v1/summaries", `{"mode":"turbo"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
