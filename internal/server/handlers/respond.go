package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calfai/herd/internal/domain/faults"
	"github.com/calfai/herd/pkg/clients/identity"
)

// accountKey is the context key the auth middleware stores the resolved
// account under.
const accountKey = "account"

var kindStatus = map[faults.Kind]int{
	faults.KindValidation:      http.StatusBadRequest,
	faults.KindOtpInvalid:      http.StatusBadRequest,
	faults.KindUnauthenticated: http.StatusUnauthorized,
	faults.KindReauth:          http.StatusUnauthorized,
	faults.KindOtpRequest:      http.StatusBadGateway,
	faults.KindUpstream:        http.StatusBadGateway,
	faults.KindProviderUpdate:  http.StatusBadGateway,
	faults.KindProfileSync:     http.StatusBadGateway,
}

// respondFault classifies err and writes the matching status and user-facing
// message.
func respondFault(c *gin.Context, err error) {
	fault := faults.Classify(err)

	status, ok := kindStatus[fault.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": fault.Message, "kind": string(fault.Kind)})
}

// accountFrom retrieves the authenticated account set by the middleware.
func accountFrom(c *gin.Context) (identity.Account, bool) {
	value, exists := c.Get(accountKey)
	if !exists {
		return identity.Account{}, false
	}
	account, ok := value.(identity.Account)
	return account, ok
}

// SetAccount stores the authenticated account on the request context. Called
// by the auth middleware.
func SetAccount(c *gin.Context, account identity.Account) {
	c.Set(accountKey, account)
}

// sessionID identifies the caller's UI session for enrollment and chat
// state. Falls back to the client address when the header is absent.
func sessionID(c *gin.Context) string {
	if id := c.GetHeader("X-Session-ID"); id != "" {
		return id
	}
	return c.ClientIP()
}
