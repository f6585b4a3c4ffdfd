package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/api"
	"github.com/Sunshine050/emergency-project-sub001/config"
	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/dispatch"
	"github.com/Sunshine050/emergency-project-sub001/events"
	"github.com/Sunshine050/emergency-project-sub001/models"
)

// Case exported for testing purposes
type Case struct {
	DB          databases.CaseDatabase
	Coordinator *dispatch.Coordinator
	Bus         *events.Bus
	Stats       dispatch.Invalidator
}

type assignRequest struct {
	OrganizationID string `json:"organizationId"`
}

type updateStatusRequest struct {
	Status models.CaseStatus `json:"status"`
}

type intakeRequest struct {
	Severity    int                 `json:"severity"`
	Description string              `json:"description"`
	Symptoms    []string            `json:"symptoms"`
	Patient     models.Patient      `json:"patient"`
	Location    models.CaseLocation `json:"location"`
}

// Page holds the current page for paged list endpoints
var Page int

// AssignCaseHandler assigns a pending case to an organization
func (c Case) AssignCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("actor missing from context", http.StatusUnauthorized, w, fmt.Errorf("unauthenticated"))
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	updated, err := c.Coordinator.AssignCase(r.Context(), caseID, req.OrganizationID, actor)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeCase(w, updated)
}

// CancelCaseHandler cancels a non-terminal case
func (c Case) CancelCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("actor missing from context", http.StatusUnauthorized, w, fmt.Errorf("unauthenticated"))
		return
	}

	updated, err := c.Coordinator.CancelCase(r.Context(), caseID, actor)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeCase(w, updated)
}

// UpdateStatusHandler moves an assigned case forward (start/complete)
func (c Case) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("actor missing from context", http.StatusUnauthorized, w, fmt.Errorf("unauthenticated"))
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	updated, err := c.Coordinator.UpdateStatus(r.Context(), caseID, req.Status, actor)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeCase(w, updated)
}

// CreateCaseHandler performs case intake: a new PENDING case reported
// to the dispatch center
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("actor missing from context", http.StatusUnauthorized, w, fmt.Errorf("unauthenticated"))
		return
	}
	if actor.Role != models.RoleEmergencyCenter {
		config.RejectionStatus(string(dispatch.ReasonForbidden), "only the emergency center can create cases", http.StatusForbidden, w)
		return
	}

	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if req.Severity < 1 || req.Severity > 4 {
		config.RejectionStatus(string(dispatch.ReasonValidation), "severity must be between 1 and 4", http.StatusBadRequest, w)
		return
	}

	now := time.Now().UTC()
	newCase := models.EmergencyCase{
		ID: primitive.NewObjectID().Hex(),
		Details: models.CaseDetails{
			Status:      models.StatusPending,
			Severity:    req.Severity,
			Grade:       gradeForSeverity(req.Severity),
			ReportedAt:  now,
			Patient:     req.Patient,
			Location:    req.Location,
			Description: req.Description,
			Symptoms:    req.Symptoms,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Version: 0,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	_, err := c.DB.InsertOne(ctx, newCase)
	if err != nil {
		config.ErrorStatus("failed to create case", http.StatusInternalServerError, w, err)
		return
	}

	c.Bus.Publish(models.Event{
		Kind:  models.EventCaseStatus,
		Scope: models.EventScope{},
		Payload: models.CaseStatusPayload{
			CaseID:   newCase.ID,
			Status:   newCase.Details.Status,
			Severity: newCase.Details.Severity,
		},
	})
	if c.Stats != nil {
		c.Stats.Invalidate()
	}

	b, err := json.Marshal(newCase)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CaseByIDHandler returns a case by ID
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	zap.S().Debugf("case_id: %v", caseID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": caseID})
	if err != nil {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, err)
		return
	}

	writeCase(w, dbResp)
}

// CasesHandler returns cases, optionally filtered by status
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["case.status"] = models.CaseStatus(status)
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := c.DB.Find(ctx, filter, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get cases", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.EmergencyCase{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func gradeForSeverity(severity int) models.CaseGrade {
	switch severity {
	case 4:
		return models.GradeCritical
	case 3:
		return models.GradeUrgent
	default:
		return models.GradeNonUrgent
	}
}

func writeCase(w http.ResponseWriter, emergencyCase *models.EmergencyCase) {
	b, err := json.Marshal(emergencyCase)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// writeRejection maps a coordinator rejection onto its HTTP status
// while keeping the stable machine reason in the body
func writeRejection(w http.ResponseWriter, err error) {
	rej, ok := dispatch.AsRejection(err)
	if !ok {
		config.ErrorStatus("unexpected error", http.StatusInternalServerError, w, err)
		return
	}
	var status int
	switch rej.Reason {
	case dispatch.ReasonInvalidTransition, dispatch.ReasonConflict:
		status = http.StatusConflict
	case dispatch.ReasonForbidden:
		status = http.StatusForbidden
	case dispatch.ReasonNotFound:
		status = http.StatusNotFound
	case dispatch.ReasonTimeout:
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusBadRequest
	}
	config.RejectionStatus(string(rej.Reason), rej.Message, status, w)
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}
