package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront/internal/testutils"
	"github.com/stretchr/testify/assert"
)

type expirer struct{ called bool }

func (e *expirer) Expire(w http.ResponseWriter) { e.called = true }

func TestEndSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(mockCheckoutService)
		svc.On("End", testSession).Once()
		cookies := &expirer{}

		req := testutils.CreateTestRequestWithSession(http.MethodDelete, "/api/v1/session", nil, testSession, nil)
		rr := httptest.NewRecorder()

		handlers.NewSessionHandler(svc, cookies).EndSession()(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.True(t, cookies.called)
		svc.AssertExpectations(t)
	})

	t.Run("No session", func(t *testing.T) {
		svc := new(mockCheckoutService)
		cookies := &expirer{}

		req := testutils.CreateTestRequestWithoutSession(http.MethodDelete, "/api/v1/session", nil, nil)
		rr := httptest.NewRecorder()

		handlers.NewSessionHandler(svc, cookies).EndSession()(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, cookies.called)
	})
}
