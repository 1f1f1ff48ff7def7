package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"stylebot/internal/http/httpapi"
)

func callbackURL(params url.Values) string {
	return "/callback/cb-secret?" + params.Encode()
}

func TestCallbackRejectsBadToken(t *testing.T) {
	app, _, notifier := newTestApp()
	router := httpapi.NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, "/callback/wrong?chat_id=7&job_name=j&step=1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("bad token must not reach the reconciler")
	}
}

func TestCallbackRoutesProgress(t *testing.T) {
	app, _, notifier := newTestApp()
	router := httpapi.NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, callbackURL(url.Values{
		"chat_id":  {"7"},
		"job_name": {"job_7_2026_08_29_1"},
		"step":     {"3"},
	}), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	want := notification{Kind: "progress", ChatID: 7, JobName: "job_7_2026_08_29_1", Iteration: 3}
	if len(notifier.calls) != 1 || notifier.calls[0] != want {
		t.Fatalf("calls = %+v, want %+v", notifier.calls, want)
	}
}

func TestCallbackRoutesCompletion(t *testing.T) {
	app, _, notifier := newTestApp()
	router := httpapi.NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, callbackURL(url.Values{
		"chat_id":     {"7"},
		"job_name":    {"job_7_2026_08_29_1"},
		"result_path": {"jobs/job_7_2026_08_29_1/result.jpg"},
	}), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	want := notification{Kind: "completed", ChatID: 7, JobName: "job_7_2026_08_29_1", Payload: "jobs/job_7_2026_08_29_1/result.jpg"}
	if len(notifier.calls) != 1 || notifier.calls[0] != want {
		t.Fatalf("calls = %+v, want %+v", notifier.calls, want)
	}
}

func TestCallbackRoutesError(t *testing.T) {
	app, _, notifier := newTestApp()
	router := httpapi.NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, callbackURL(url.Values{
		"chat_id":  {"7"},
		"job_name": {"job_7_2026_08_29_1"},
		"error":    {"cuda out of memory"},
	}), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	want := notification{Kind: "error", ChatID: 7, JobName: "job_7_2026_08_29_1", Payload: "cuda out of memory"}
	if len(notifier.calls) != 1 || notifier.calls[0] != want {
		t.Fatalf("calls = %+v, want %+v", notifier.calls, want)
	}
}

func TestCallbackRequiresRecognizedEvent(t *testing.T) {
	app, _, notifier := newTestApp()
	router := httpapi.NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, callbackURL(url.Values{
		"chat_id":  {"7"},
		"job_name": {"job_7_2026_08_29_1"},
	}), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("unrecognized event must not reach the reconciler")
	}
}

func TestCallbackRejectsBadChatID(t *testing.T) {
	app, _, _ := newTestApp()
	router := httpapi.NewRouter(app)

	req := httptest.NewRequest(http.MethodGet, "/callback/cb-secret?chat_id=abc&job_name=j&step=1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
