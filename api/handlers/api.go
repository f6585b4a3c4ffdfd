package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/api"
	"github.com/Sunshine050/emergency-project-sub001/api/scheduler"
	"github.com/Sunshine050/emergency-project-sub001/config"
	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/dispatch"
	"github.com/Sunshine050/emergency-project-sub001/events"
	"github.com/Sunshine050/emergency-project-sub001/models"
	"github.com/Sunshine050/emergency-project-sub001/stats"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Bus       *events.Bus
	Stats     *stats.Aggregator
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper), JWTSecret: a.Config.JWTSecret}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	caseDB := databases.NewCaseDatabase(a.dbHelper)
	orgDB := databases.NewOrganizationDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)
	notificationDB := databases.NewNotificationDatabase(a.dbHelper)

	a.Bus = events.NewBus()
	a.Stats = stats.New(caseDB, orgDB, a.Bus, a.Config.StatsDebounce)
	coordinator := dispatch.NewCoordinator(caseDB, orgDB, userDB, notificationDB, a.Bus, a.Stats)

	c := Case{DB: caseDB, Coordinator: coordinator, Bus: a.Bus, Stats: a.Stats}
	n := Notification{DB: notificationDB}
	s := Stats{Agg: a.Stats}
	rt := Realtime{
		Bus:             a.Bus,
		Agg:             a.Stats,
		NDB:             notificationDB,
		JWTSecret:       a.Config.JWTSecret,
		HeartbeatWindow: a.Config.HeartbeatWindow,
	}

	a.Scheduler = scheduler.NewScheduler(caseDB, userDB, notificationDB, a.Stats, &a.Config)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	r.HandleFunc("/ws", rt.StreamHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(api.QueryTimeout + 5*time.Second))

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.CasesHandler))).Methods("GET")
	apiCreate.Handle("/case/{case_id}", api.Middleware(http.HandlerFunc(c.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/case/{case_id}/assign", api.Middleware(http.HandlerFunc(c.AssignCaseHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/cancel", api.Middleware(http.HandlerFunc(c.CancelCaseHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/status", api.Middleware(http.HandlerFunc(c.UpdateStatusHandler))).Methods("POST")

	apiCreate.Handle("/notifications", api.Middleware(http.HandlerFunc(n.NotificationsHandler))).Methods("GET")
	apiCreate.Handle("/notifications/unread-count", api.Middleware(http.HandlerFunc(n.UnreadCountHandler))).Methods("GET")
	apiCreate.Handle("/notifications/read-all", api.Middleware(http.HandlerFunc(n.MarkAllReadHandler))).Methods("PUT")
	apiCreate.Handle("/notifications/{notification_id}/read", api.Middleware(http.HandlerFunc(n.MarkReadHandler))).Methods("PUT")
	apiCreate.Handle("/notifications/{notification_id}", api.Middleware(http.HandlerFunc(n.DeleteNotificationHandler))).Methods("DELETE")

	apiCreate.Handle("/dashboard/stats", api.Middleware(http.HandlerFunc(s.DashboardStatsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("emergency coordinator has connected to the database")

	// initialize api router
	a.initializeRoutes()

	a.Scheduler.Start()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
