package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondErrorValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("%w: plan is required", ErrValidation))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var problem ProblemDetail
	if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Title != "Validation Failed" {
		t.Fatalf("unexpected title %q", problem.Title)
	}
	if problem.Detail == "" {
		t.Fatal("validation detail should carry the cause")
	}
}

func TestRespondErrorUnknown(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pool exhausted"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var problem ProblemDetail
	if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Detail != "" {
		t.Fatalf("internal errors must not leak detail, got %q", problem.Detail)
	}
}
