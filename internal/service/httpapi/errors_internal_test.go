package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	"github.com/vladislavdragonenkov/appliances/internal/service/order"
)

func TestWriteDomainError(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h := NewHandler(Dependencies{Clock: func() time.Time { return fixed }})

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", domain.NewValidationError(domain.ErrItemsRequired), http.StatusBadRequest, "validation failed"},
		{"not found", domain.NewNotFound("Order", "id", 7), http.StatusNotFound, "Order not found with id: '7'"},
		{"unauthenticated", fmt.Errorf("%w: token expired", domain.ErrUnauthenticated), http.StatusUnauthorized, "authentication required"},
		{"policy denial", &order.AccessDeniedError{Action: order.ActionRead, Role: domain.RoleClient, Reason: "secret"}, http.StatusForbidden, "access denied"},
		{"too many attempts", domain.ErrTooManyAttempts, http.StatusTooManyRequests, "too many login attempts"},
		{"wrapped conflict", fmt.Errorf("update order 1: %w", domain.ErrOrderVersionConflict), http.StatusConflict, "conflict: order version conflict"},
		{"unknown", errors.New("db is down"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeDomainError(rec, httptest.NewRequest(http.MethodGet, "/orders/7", nil), tt.err)

			require.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, http.StatusText(tt.status), body.Error)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, "/orders/7", body.Path)
			assert.True(t, fixed.Equal(body.Timestamp))
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}
}

func TestPageRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orders?page=2&size=500&sort=id,asc", nil)
	page, err := pageRequest(r, false)
	require.NoError(t, err)
	assert.Equal(t, domain.PageRequest{Page: 2, Size: domain.MaxPageSize, Ascending: true}, page)

	r = httptest.NewRequest(http.MethodGet, "/orders", nil)
	page, err = pageRequest(r, false)
	require.NoError(t, err)
	assert.Equal(t, domain.PageRequest{Page: 0, Size: domain.DefaultPageSize}, page)

	for _, query := range []string{"page=-1", "size=x", "sort=name,asc", "sort=id,up"} {
		r = httptest.NewRequest(http.MethodGet, "/orders?"+query, nil)
		_, err = pageRequest(r, false)
		assert.ErrorIs(t, err, domain.ErrValidation, query)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := bearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Basic abc")
	_, ok = bearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "bearer abc.def")
	token, ok := bearerToken(r)
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)
}
