package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/config"
	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/models"
	"github.com/Sunshine050/emergency-project-sub001/stats"
	templates "github.com/Sunshine050/emergency-project-sub001/templates/html"
)

// escalationAge is how long a critical case may sit unassigned before
// the dispatch center is emailed about it
const escalationAge = 10 * time.Minute

// Scheduler handles periodic background jobs: the stats republish drift
// guard and the critical-case escalation sweep
type Scheduler struct {
	cron       *cron.Cron
	CaseDB     databases.CaseDatabase
	UDB        databases.UserDatabase
	NDB        databases.NotificationDatabase
	Stats      *stats.Aggregator
	conf       *config.Config
	instanceID string

	mu        sync.Mutex
	escalated map[string]time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(caseDB databases.CaseDatabase, uDB databases.UserDatabase, nDB databases.NotificationDatabase, agg *stats.Aggregator, conf *config.Config) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		CaseDB:     caseDB,
		UDB:        uDB,
		NDB:        nDB,
		Stats:      agg,
		conf:       conf,
		instanceID: instanceID,
		escalated:  make(map[string]time.Time),
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Republish dashboard stats every minute so dashboards converge
	// even if a coalesced recompute was lost
	_, err := s.cron.AddFunc("* * * * *", s.republishStats)
	if err != nil {
		zap.S().Errorw("failed to register stats republish job", "error", err)
	}

	// Sweep for critical cases still pending every 5 minutes
	_, err = s.cron.AddFunc("*/5 * * * *", s.escalationSweep)
	if err != nil {
		zap.S().Errorw("failed to register escalation sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Coordinator scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Coordinator scheduler stopped")
}

func (s *Scheduler) republishStats() {
	s.Stats.Invalidate()
}

// escalationSweep finds severity-4 cases that have sat PENDING beyond
// the escalation age and emails every dispatch-center user about them.
// Each case is escalated at most once while it stays pending.
func (s *Scheduler) escalationSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-escalationAge)
	filter := bson.M{
		"case.status":   models.StatusPending,
		"case.severity": 4,
		"case.reportedAt": bson.M{
			"$lt": cutoff,
		},
	}

	stale, err := s.CaseDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to find stale critical cases", "error", err)
		return
	}

	var fresh []models.EmergencyCase
	current := make(map[string]struct{}, len(stale))
	s.mu.Lock()
	for _, c := range stale {
		current[c.ID] = struct{}{}
		if _, seen := s.escalated[c.ID]; !seen {
			s.escalated[c.ID] = time.Now()
			fresh = append(fresh, c)
		}
	}
	// cases that no longer match the sweep filter have left PENDING;
	// drop them so the dedup set does not grow for the process lifetime
	for id := range s.escalated {
		if _, ok := current[id]; !ok {
			delete(s.escalated, id)
		}
	}
	s.mu.Unlock()
	if len(fresh) == 0 {
		return
	}

	dispatchers, err := s.UDB.Find(ctx, bson.M{"user.role": models.RoleEmergencyCenter})
	if err != nil {
		zap.S().Errorw("failed to find dispatch center users", "error", err)
		return
	}

	for _, c := range fresh {
		zap.S().Warnw("critical case still pending, escalating",
			"caseID", c.ID,
			"reportedAt", c.Details.ReportedAt,
			"instance", s.instanceID,
		)
		for _, user := range dispatchers {
			s.sendEscalationEmail(user.Details.Email, c)
		}
	}
}

func (s *Scheduler) sendEscalationEmail(email string, c models.EmergencyCase) {
	if s.conf.SendgridAPIKey == "" {
		zap.S().Debug("SENDGRID_API_KEY not set, skipping escalation email")
		return
	}

	subject := fmt.Sprintf("Critical case %s still unassigned", c.ID)
	body := fmt.Sprintf("Emergency case %s (severity 4) was reported at %s and has not been assigned.\nLocation: %s\nDescription: %s",
		c.ID, c.Details.ReportedAt.Format(time.RFC3339), c.Details.Location.Address, c.Details.Description)

	from := mail.NewEmail("Emergency Coordination Center", s.conf.EscalationSender)
	to := mail.NewEmail("", email)
	message := mail.NewSingleEmail(from, subject, to, body, templates.RenderGenericEmail(subject, body))

	client := sendgrid.NewSendClient(s.conf.SendgridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send escalation email", "error", err, "email", email)
		return
	}
	if resp.StatusCode >= 400 {
		zap.S().Errorw("sendgrid rejected escalation email", "status", resp.StatusCode, "email", email)
	}
}
