package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/api"
	"github.com/Sunshine050/emergency-project-sub001/config"
	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/models"
)

// Notification exported for testing purposes
type Notification struct {
	DB databases.NotificationDatabase
}

// NotificationsHandler returns the actor's notifications, newest first
func (n Notification) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("actor missing from context", http.StatusUnauthorized, w, fmt.Errorf("unauthenticated"))
		return
	}

	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	sort := bson.D{{Key: "createdAt", Value: -1}}
	opts := &options.FindOptions{Limit: &limit64, Skip: &skip64, Sort: sort}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := n.DB.Find(ctx, bson.M{"userID": actor.UserID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get notifications", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Notification{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UnreadCountHandler returns the actor's unread notification count from
// the maintained counter
func (n Notification) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("actor missing from context", http.StatusUnauthorized, w, fmt.Errorf("unauthenticated"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	count, err := n.DB.UnreadCount(ctx, actor.UserID)
	if err != nil {
		config.ErrorStatus("failed to get unread count", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"unread": %d}`, count)))
}

// MarkReadHandler marks one notification as read. Marking an
// already-read notification is a no-op success.
func (n Notification) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("actor missing from context", http.StatusUnauthorized, w, fmt.Errorf("unauthenticated"))
		return
	}
	notificationID := mux.Vars(r)["notification_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	changed, err := n.DB.MarkRead(ctx, actor.UserID, notificationID)
	if err != nil {
		config.ErrorStatus("failed to mark notification as read", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Debugw("notification marked read",
		"notificationID", notificationID,
		"changed", changed,
	)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "notification marked as read successfully"}`))
}

// MarkAllReadHandler marks every unread notification for the actor as
// read. Calling it twice in a row changes nothing the second time.
func (n Notification) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("actor missing from context", http.StatusUnauthorized, w, fmt.Errorf("unauthenticated"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	modified, err := n.DB.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		config.ErrorStatus("failed to mark notifications as read", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"message": "notifications marked as read successfully", "modified": %d}`, modified)))
}

// DeleteNotificationHandler deletes a notification owned by the actor
func (n Notification) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("actor missing from context", http.StatusUnauthorized, w, fmt.Errorf("unauthenticated"))
		return
	}
	notificationID := mux.Vars(r)["notification_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	deleted, err := n.DB.DeleteOne(ctx, actor.UserID, notificationID)
	if err != nil {
		config.ErrorStatus("failed to delete notification", http.StatusInternalServerError, w, err)
		return
	}
	if !deleted {
		config.ErrorStatus("notification not found", http.StatusNotFound, w, fmt.Errorf("notification not found"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "notification deleted successfully"}`))
}
