package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sunshine050/emergency-project-sub001/api"
)

func TestTimeoutMiddlewareRejectsSlowHandler(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// block until the middleware cancels the request context and
		// return without writing, like a handler stuck on the store
		<-r.Context().Done()
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)

	api.TimeoutMiddleware(20 * time.Millisecond)(slow).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	assert.Contains(t, rr.Body.String(), `"reason": "timeout"`)
}

func TestTimeoutMiddlewarePassesFastHandler(t *testing.T) {
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok": true}`))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)

	api.TimeoutMiddleware(time.Second)(fast).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"ok": true}`, rr.Body.String())
}
