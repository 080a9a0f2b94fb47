package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bilancio/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/rules/1").
		Body(map[string]string{"id": "1"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/rules/1" {
		t.Errorf("Location = %q", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"id":"1"}` {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Body(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestErrorFrom(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantField string
		wantMsg   string
	}{
		{"validation", core.ErrInvalidMonth, http.StatusUnprocessableEntity, "month", "must be between 1 and 12"},
		{"wrapped validation", fmt.Errorf("create: %w", core.ErrInvalidAmount), http.StatusUnprocessableEntity, "amount", ""},
		{"not found", fmt.Errorf("rule x: %w", core.ErrNotFound), http.StatusNotFound, "", "not found"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "", ""},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "", "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFrom(tt.err).Write(w)

			if w.Code != tt.wantCode {
				t.Fatalf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			body := decode[errorBody](t, w)
			if body.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", body.Field, tt.wantField)
			}
			if tt.wantMsg != "" && body.Error != tt.wantMsg {
				t.Errorf("Error = %q, want %q", body.Error, tt.wantMsg)
			}
			if strings.Contains(body.Error, "disk") {
				t.Error("internal error details leaked to the client")
			}
		})
	}
}
