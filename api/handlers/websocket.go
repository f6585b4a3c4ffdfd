package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/api"
	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/events"
	"github.com/Sunshine050/emergency-project-sub001/models"
	"github.com/Sunshine050/emergency-project-sub001/stats"
)

// sessionState tracks a connection through its lifecycle
type sessionState int

// Session lifecycle. Disconnected is terminal; reconnecting clients
// always run a fresh handshake.
const (
	stateConnecting sessionState = iota
	stateAuthenticated
	stateSubscribed
	stateDisconnected
)

const (
	defaultHeartbeatWindow = 60 * time.Second
	writeWait              = 10 * time.Second
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards are served from a separate origin
	},
}

// Realtime is the websocket gateway: it authenticates sessions, sends
// the catch-up snapshot and then streams bus events until the client
// disconnects or misses its heartbeat.
type Realtime struct {
	Bus             *events.Bus
	Agg             *stats.Aggregator
	NDB             databases.NotificationDatabase
	JWTSecret       string
	HeartbeatWindow time.Duration
}

type session struct {
	id    string
	actor models.Actor
	conn  *websocket.Conn
	state sessionState
}

// StreamHandler upgrades the connection and runs the session to
// completion
func (rt Realtime) StreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	s := &session{
		id:    uuid.New().String(),
		conn:  conn,
		state: stateConnecting,
	}

	actor, err := api.ParseWSToken(rt.JWTSecret, r.URL.Query().Get("token"))
	if err != nil {
		zap.S().Warnw("websocket handshake rejected", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	s.actor = actor
	s.state = stateAuthenticated

	// subscribe before the snapshot so nothing committed between the
	// snapshot read and the first forwarded event can be missed; the
	// channel buffers while the snapshot is in flight
	eventCh, unsubscribe := rt.Bus.Subscribe(actor.UserID, actor.OrganizationID, actor.Role)

	if err := rt.sendSnapshot(s); err != nil {
		zap.S().Errorw("failed to send catch-up snapshot",
			"sessionID", s.id,
			"error", err,
		)
		unsubscribe()
		conn.Close()
		return
	}
	s.state = stateSubscribed
	zap.S().Infow("session subscribed",
		"sessionID", s.id,
		"userID", actor.UserID,
		"role", actor.Role,
	)

	done := make(chan struct{})
	go rt.writePump(s, eventCh, done)
	rt.readPump(s, done)

	// readPump returned: heartbeat missed or client went away
	s.state = stateDisconnected
	unsubscribe()
	conn.Close()
	zap.S().Infow("session disconnected", "sessionID", s.id, "userID", actor.UserID)
}

// sendSnapshot pushes the initial state dump: current stats plus the
// user's unread notifications. It runs before the write pump starts, so
// the handler goroutine is still the only writer.
func (rt Realtime) sendSnapshot(s *session) error {
	ctx, cancel := context.WithTimeout(context.Background(), api.QueryTimeout)
	defer cancel()

	snapshot, err := rt.Agg.Snapshot(ctx)
	if err != nil {
		return err
	}
	unread, err := rt.NDB.Find(ctx, bson.M{"userID": s.actor.UserID, "isRead": false})
	if err != nil {
		return err
	}
	if unread == nil {
		unread = []models.Notification{}
	}
	count, err := rt.NDB.UnreadCount(ctx, s.actor.UserID)
	if err != nil {
		return err
	}

	msg := models.Event{
		Kind:      models.EventSnapshot,
		Timestamp: time.Now().UTC(),
		Payload: models.SnapshotPayload{
			Stats:         snapshot,
			Notifications: unread,
			UnreadCount:   count,
		},
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

// writePump is the single writer for the session: it serializes live
// events and heartbeat pings onto the connection so frames never
// interleave
func (rt Realtime) writePump(s *session, eventCh <-chan models.Event, done <-chan struct{}) {
	pingPeriod := rt.heartbeatWindow() * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-eventCh:
			if !ok {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(evt); err != nil {
				// publish failure is isolated to this session; the
				// close handshake lets readPump tear everything down
				zap.S().Debugw("failed to write event",
					"sessionID", s.id,
					"kind", evt.Kind,
					"error", err,
				)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readPump consumes client frames to run the heartbeat: every pong
// extends the read deadline; a silent client hits the deadline and the
// session is torn down
func (rt Realtime) readPump(s *session, done chan struct{}) {
	defer close(done)
	window := rt.heartbeatWindow()
	s.conn.SetReadDeadline(time.Now().Add(window))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(window))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
		// inbound data frames also count as liveness
		s.conn.SetReadDeadline(time.Now().Add(window))
	}
}

func (rt Realtime) heartbeatWindow() time.Duration {
	if rt.HeartbeatWindow > 0 {
		return rt.HeartbeatWindow
	}
	return defaultHeartbeatWindow
}
