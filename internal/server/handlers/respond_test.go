package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calfai/herd/internal/domain/faults"
	"github.com/calfai/herd/pkg/clients/identity"
)

func TestRespondFaultStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		kind   faults.Kind
		status int
	}{
		{faults.KindValidation, http.StatusBadRequest},
		{faults.KindOtpInvalid, http.StatusBadRequest},
		{faults.KindUnauthenticated, http.StatusUnauthorized},
		{faults.KindReauth, http.StatusUnauthorized},
		{faults.KindOtpRequest, http.StatusBadGateway},
		{faults.KindUpstream, http.StatusBadGateway},
		{faults.KindProviderUpdate, http.StatusBadGateway},
		{faults.KindProfileSync, http.StatusBadGateway},
		{faults.KindGeneric, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)

			respondFault(c, faults.New(tc.kind, "it broke"))

			assert.Equal(t, tc.status, recorder.Code)
			assert.Contains(t, recorder.Body.String(), string(tc.kind))
		})
	}
}

func TestRespondFaultClassifiesRawErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	respondFault(c, errors.New("dial tcp: connection refused"))

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestAccountRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := accountFrom(c)
	assert.False(t, ok)

	SetAccount(c, identity.Account{ID: "acct-1", Email: "amadou@example.com"})

	account, ok := accountFrom(c)
	require.True(t, ok)
	assert.Equal(t, "acct-1", account.ID)
}

func TestSessionIDHeaderFallsBackToClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	c.Request.Header.Set("X-Session-ID", "sess-42")
	assert.Equal(t, "sess-42", sessionID(c))

	c.Request.Header.Del("X-Session-ID")
	assert.NotEmpty(t, sessionID(c))
}
