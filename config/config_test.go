package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, 60*time.Second, conf.HeartbeatWindow)
	assert.Equal(t, 250*time.Millisecond, conf.StatsDebounce)
}

func TestNewReadsTunables(t *testing.T) {
	os.Setenv("WS_HEARTBEAT_WINDOW", "5000")
	os.Setenv("STATS_DEBOUNCE_WINDOW", "100")
	defer os.Unsetenv("WS_HEARTBEAT_WINDOW")
	defer os.Unsetenv("STATS_DEBOUNCE_WINDOW")

	conf := New()
	assert.Equal(t, 5*time.Second, conf.HeartbeatWindow)
	assert.Equal(t, 100*time.Millisecond, conf.StatsDebounce)
}

func TestErrorStatus(t *testing.T) {

	ErrorStatus("error it borked", http.StatusBadRequest, httptest.NewRecorder(), errors.New("bad request"))
	assert.True(t, true)
}

func TestRejectionStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	RejectionStatus("invalid_transition", "case is not pending", http.StatusConflict, rr)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid_transition")
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(1))
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(2))
}

func TestSetLoggerSetsLocalLogger(t *testing.T) {
	l, err := setLogger("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
}
