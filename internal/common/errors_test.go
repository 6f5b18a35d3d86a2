package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", fmt.Errorf("saved query x: %w", ErrNotFound), http.StatusNotFound},
		{"validation", fmt.Errorf("%w: targets", ErrValidation), http.StatusBadRequest},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"upstream", fmt.Errorf("tourist: %w", ErrUpstream), http.StatusBadGateway},
		{"unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"unique violation", &pgconn.PgError{Code: "23505"}, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromError(tt.err))
		})
	}
}

func TestRespondWithFailures(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithFailures(rec, http.StatusBadGateway, "error fetching data", []string{"ghost"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"error fetching data","status":502,"failures":["ghost"]}`, rec.Body.String())
}

func TestRespondWithErrorOmitsFailures(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusNotFound, "missing")
	assert.JSONEq(t, `{"error":"missing","status":404}`, rec.Body.String())
}
