package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ilim-checkout/internal/logging"
)

func post(t *testing.T, srv *httptest.Server, path string, auth bool) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer abc")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body envelope
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestServer_PendingThenSucceeded(t *testing.T) {
	srv := httptest.NewServer(NewServer(2, "http://mock.local", logging.Discard()))
	defer srv.Close()

	status, body := post(t, srv, "/student/purchase-course/42", true)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.HasPrefix(body.Body, "http://mock.local/pay/") {
		t.Errorf("unexpected redirect url %q", body.Body)
	}

	want := []string{"PENDING", "PENDING", "SUCCEEDED"}
	for i, w := range want {
		_, body := post(t, srv, "/student/course/42/check-purchase", true)
		if body.Body != w {
			t.Errorf("check %d: expected %s, got %s", i+1, w, body.Body)
		}
	}
}

func TestServer_RequiresBearer(t *testing.T) {
	srv := httptest.NewServer(NewServer(0, "http://mock.local", logging.Discard()))
	defer srv.Close()

	status, _ := post(t, srv, "/student/purchase-course/42", false)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
}

func TestServer_CheckWithoutPurchase(t *testing.T) {
	srv := httptest.NewServer(NewServer(0, "http://mock.local", logging.Discard()))
	defer srv.Close()

	status, _ := post(t, srv, "/student/course/7/check-purchase", true)
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}
