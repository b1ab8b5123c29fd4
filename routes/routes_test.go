package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bettermind/handlers"
	"bettermind/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
	r := gin.New()
	RegisterRoutes(r, &handlers.HandlerBundle{
		GetAvailableSlots: ok,
		CreateAppointment: ok,
		ListAppointments:  ok,
		GetAppointment:    ok,
		UpdateAppointment: ok,
		CancelAppointment: ok,
		Health:            ok,
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	protected := []struct{ method, path string }{
		{http.MethodGet, "/api/doctors/doc-1/slots?date=2024-06-01"},
		{http.MethodPost, "/api/appointments"},
		{http.MethodGet, "/api/appointments"},
		{http.MethodGet, "/api/appointments/res-1"},
		{http.MethodPatch, "/api/appointments/res-1"},
		{http.MethodDelete, "/api/appointments/res-1"},
	}
	for _, p := range protected {
		req := httptest.NewRequest(p.method, p.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}
