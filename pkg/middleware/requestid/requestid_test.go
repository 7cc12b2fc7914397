package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenIDs struct {
	gin string
	ctx string
}

func serve(inbound string) (*httptest.ResponseRecorder, seenIDs) {
	gin.SetMode(gin.TestMode)
	var seen seenIDs
	r := gin.New()
	r.Use(Middleware())
	r.POST("/generate", func(c *gin.Context) {
		seen.gin = Value(c)
		seen.ctx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	if inbound != "" {
		req.Header.Set(Header, inbound)
	}
	r.ServeHTTP(w, req)
	return w, seen
}

func TestMiddlewareGeneratesID(t *testing.T) {
	w, seen := serve("")

	_, err := uuid.Parse(seen.gin)
	require.NoError(t, err)
	assert.Equal(t, seen.gin, seen.ctx)
	assert.Equal(t, seen.gin, w.Header().Get(Header))
}

func TestMiddlewareReusesInboundID(t *testing.T) {
	_, seen := serve("wizard-7f3a")
	assert.Equal(t, "wizard-7f3a", seen.gin)
	assert.Equal(t, "wizard-7f3a", seen.ctx)
}

func TestMiddlewareReplacesMalformedID(t *testing.T) {
	for _, inbound := range []string{strings.Repeat("x", maxLength+1), "two words", "line\nbreak", "café"} {
		_, seen := serve(inbound)
		assert.Len(t, seen.gin, 36, inbound)
	}
}

func TestFromContextWithoutID(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
	assert.Equal(t, "job-1", FromContext(WithID(context.Background(), "job-1")))
}
