package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusCreated, map[string]string{"message": "hello"})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if success, ok := body["success"].(bool); !ok || !success {
		t.Error("Expected success to be true")
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Error("Expected timestamp to be present")
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["message"] != "hello" {
		t.Errorf("Expected data.message 'hello', got %v", body["data"])
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		message     string
		wantMessage string
	}{
		{name: "short message", message: "page must be a positive integer", wantMessage: "page must be a positive integer"},
		{name: "long message is truncated", message: strings.Repeat("x", 300), wantMessage: strings.Repeat("x", 200) + "..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSONError(w, http.StatusBadRequest, "validation", tt.message)

			var body map[string]any
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body["success"] != false {
				t.Error("Expected success to be false")
			}
			if body["error"] != "validation" {
				t.Errorf("Expected error 'validation', got %v", body["error"])
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("Expected message %q, got %v", tt.wantMessage, body["message"])
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid object", body: `{"provider_id": 5, "date": "2026-10-20T14:00:00Z"}`},
		{name: "empty body", body: "", wantErr: true},
		{name: "unknown field", body: `{"provider_id": 5, "color": "red"}`, wantErr: true},
		{name: "trailing object", body: `{"provider_id": 5}{"provider_id": 6}`, wantErr: true},
		{name: "wrong type", body: `{"provider_id": "five"}`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v struct {
				ProviderID int64  `json:"provider_id"`
				Date       string `json:"date"`
			}
			err := decodeJSON(req, &v)
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
