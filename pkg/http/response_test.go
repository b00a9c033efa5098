package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "tripfare/pkg/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.NotFound("Price record"), http.StatusNotFound, apperrors.CodeNotFound},
		{"conflict", apperrors.Conflict("already frozen"), http.StatusConflict, apperrors.CodeConflict},
		{"expired", apperrors.FreezeExpired("f-1"), http.StatusGone, apperrors.CodeFreezeExpired},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatalf("WriteError returned %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, body.Code)
			}
			if strings.Contains(rec.Body.String(), "db down") {
				t.Error("internal error message leaked to the response")
			}
		})
	}
}

func TestWriteSuccess_WrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteSuccess(rec, map[string]int{"current_price": 9000}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Body.String(), `"data":{"current_price":9000}`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"absent uses fallback", "", 30, false},
		{"valid", "days=7", 7, false},
		{"clamped to max", "days=100000", 3650, false},
		{"below min", "days=0", 0, true},
		{"not a number", "days=abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := QueryInt(r, "days", 30, 1, 3650)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		UserID string `json:"user_id"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"user_id":"u-1"}`))
	if err := DecodeJSON(r, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.UserID != "u-1" {
		t.Errorf("expected u-1, got %s", dst.UserID)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"user":"u-1"}`))
	if err := DecodeJSON(r, &dst); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for unknown field, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(r, &dst); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty body, got %v", err)
	}
}
