package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	Url              string
	DatabaseName     string
	BaseUrl          string
	Port             string
	JWTSecret        string
	HeartbeatWindow  time.Duration
	StatsDebounce    time.Duration
	SendgridAPIKey   string
	EscalationSender string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		Url:              os.Getenv("DB_URI"),
		DatabaseName:     os.Getenv("DB_NAME"),
		BaseUrl:          os.Getenv("BASE_URL"),
		Port:             os.Getenv("PORT"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		HeartbeatWindow:  durationEnv("WS_HEARTBEAT_WINDOW", 60*time.Second),
		StatsDebounce:    durationEnv("STATS_DEBOUNCE_WINDOW", 250*time.Millisecond),
		SendgridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		EscalationSender: os.Getenv("ESCALATION_SENDER_EMAIL"),
	}

}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "development":
		return zap.NewDevelopment()
	case "production":
		return zap.NewProduction()
	default:
		return zap.NewExample(), nil
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		zap.S().Warnf("invalid %v, using default of %v, err: %v", key, fallback, err)
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
	return
}

// RejectionStatus writes a business rejection with its stable machine
// reason and a human readable message
func RejectionStatus(reason, message string, httpStatusCode int, w http.ResponseWriter) {
	zap.S().Debugw("request rejected",
		"reason", reason,
		"message", message,
	)
	w.WriteHeader(httpStatusCode)
	b := fmt.Sprintf(`{"reason": "%s", "message": "%s"}`, reason, message)
	w.Write([]byte(b))
}
