package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonError(rec, "lead not found", http.StatusNotFound)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "lead not found" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCSVSafe(t *testing.T) {
	cases := map[string]string{
		"Jane":     "Jane",
		"=SUM(A1)": "'=SUM(A1)",
		"+61412":   "'+61412",
		"-1":       "'-1",
		"@handle":  "'@handle",
		"":         "",
		"0412 345": "0412 345",
	}
	for in, want := range cases {
		if got := csvSafe(in); got != want {
			t.Errorf("csvSafe(%q) = %q, want %q", in, got, want)
		}
	}
}
