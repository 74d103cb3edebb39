package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Init()

	r := gin.New()
	r.Use(Instrument())
	r.GET("/api/v1/admins/:user_id/cooldown", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/admins/:user_id/cooldown", "200"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admins/abc/cooldown", nil))
	require.Equal(t, http.StatusOK, w.Code)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/admins/:user_id/cooldown", "200"))
	assert.Equal(t, before+1, after)
}

func TestObserveInvitation(t *testing.T) {
	Init()
	before := testutil.ToFloat64(invitationsTotal.WithLabelValues("invite", "already_invited"))
	ObserveInvitation("invite", "already_invited")
	assert.Equal(t, before+1, testutil.ToFloat64(invitationsTotal.WithLabelValues("invite", "already_invited")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Init()
	ObserveRosterSave("ok")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "elapor_roster_saves_total"))
}
