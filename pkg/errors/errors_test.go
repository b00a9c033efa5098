package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "price record not found"},
			expected: "NOT_FOUND: price record not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeUnavailable,
				Message: "price store is temporarily unavailable",
				Err:     errors.New("connection reset"),
			},
			expected: "SERVICE_UNAVAILABLE: price store is temporarily unavailable (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Price freeze"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Price freeze", "f-1"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad json"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("already frozen"), CodeConflict, http.StatusConflict},
		{"freeze expired", FreezeExpired("f-1"), CodeFreezeExpired, http.StatusGone},
		{"rate limited", RateLimited("slow down"), CodeRateLimited, http.StatusTooManyRequests},
		{"internal", Internal("oops", cause), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Price store", cause), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Price freeze", "f-1")

	if err.Message != "Price freeze not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "f-1" {
		t.Errorf("expected id 'f-1', got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Price freeze" {
		t.Errorf("expected resource 'Price freeze', got %v", err.Details["resource"])
	}
}

func TestWithCause_PreservesSentinel(t *testing.T) {
	sentinel := errors.New("freeze already active")
	err := Conflict("an active freeze already exists").WithCause(sentinel)

	if !errors.Is(err, sentinel) {
		t.Error("expected errors.Is to find the sentinel through the AppError")
	}
}

func TestStatusCode_DefaultsToInternal(t *testing.T) {
	err := &AppError{Code: CodeBadRequest}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("expected 500 for zero status, got %d", err.StatusCode())
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound("Price record")
	wrapped := fmt.Errorf("quote: %w", appErr)

	if !IsAppError(appErr) {
		t.Error("IsAppError() should return true for AppError")
	}
	if !IsAppError(wrapped) {
		t.Error("IsAppError() should see through fmt.Errorf wrapping")
	}
	if IsAppError(errors.New("regular error")) {
		t.Error("IsAppError() should return false for regular error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Price record")
	if AsAppError(appErr) != appErr {
		t.Error("AsAppError() should return same AppError")
	}

	regularErr := errors.New("regular error")
	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Error("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Error("AsAppError() should wrap the original error")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("redeem: %w", FreezeExpired("f-1"))
	if !HasCode(err, CodeFreezeExpired) {
		t.Error("expected HasCode to match FREEZE_EXPIRED")
	}
	if HasCode(err, CodeNotFound) {
		t.Error("expected HasCode not to match NOT_FOUND")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	data := FreezeExpired("f-1").ToJSON()

	var resp ErrorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("ToJSON() produced invalid JSON: %v", err)
	}
	if resp.Code != CodeFreezeExpired {
		t.Errorf("expected code %s, got %s", CodeFreezeExpired, resp.Code)
	}
	if resp.Details["freeze_id"] != "f-1" {
		t.Errorf("expected freeze_id detail, got %v", resp.Details["freeze_id"])
	}
}
