// Package world is the core engine: it bridges stateless transport calls to
// the stateful shared world, owning session lifecycle, navigation, the
// knowledge economy and room-scoped broadcasts. One World instance is
// constructed at process start and passed to the transports.
package world

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/sim/tuning"
	"moltmud.ai/internal/sim/worlddef"
	"moltmud.ai/internal/store"
)

type World struct {
	st    *store.Store
	graph *worlddef.World
	cfg   tuning.Tuning
	log   *log.Logger

	feed  *Feed
	audit AuditLogger

	// now is swappable for tests.
	now func() time.Time
}

func New(st *store.Store, graph *worlddef.World, cfg tuning.Tuning, logger *log.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	if graph.Room(cfg.DefaultRoom) == nil {
		return nil, fmt.Errorf("default room %q not in world definition", cfg.DefaultRoom)
	}
	if err := st.SyncRooms(graph); err != nil {
		return nil, fmt.Errorf("sync rooms: %w", err)
	}
	return &World{
		st:    st,
		graph: graph,
		cfg:   cfg,
		log:   logger,
		feed:  NewFeed(),
		now:   time.Now,
	}, nil
}

// SetAuditLogger wires the append-only economy/presence audit sink.
func (w *World) SetAuditLogger(a AuditLogger) { w.audit = a }

// Feed returns the live room-event feed consumed by the observer transport.
func (w *World) Feed() *Feed { return w.feed }

// Graph returns the immutable navigation graph.
func (w *World) Graph() *worlddef.World { return w.graph }

// Tuning returns the effective configuration.
func (w *World) Tuning() tuning.Tuning { return w.cfg }

func (w *World) sessionTimeout() time.Duration {
	return time.Duration(w.cfg.SessionTimeoutMinutes) * time.Minute
}

func (w *World) idleCutoff(now time.Time) int64 {
	return now.Add(-w.sessionTimeout()).Unix()
}

// Connect creates the agent record if needed, invalidates any prior active
// session for that agent and opens a fresh session at the default room.
func (w *World) Connect(req protocol.ConnectRequest) (protocol.ConnectResponse, *Error) {
	if req.AgentID == "" || req.Name == "" {
		return protocol.ConnectResponse{}, errf(protocol.ErrBadRequest, "agent_id and name are required")
	}
	now := w.now()

	agent, err := w.st.EnsureAgent(req.AgentID, req.Name, req.Bio, req.Emoji, w.cfg.StartingInfluence, now.Unix())
	if err != nil {
		w.log.Printf("connect: ensure agent %s: %v", req.AgentID, err)
		return protocol.ConnectResponse{}, AsError(err)
	}

	token := uuid.NewString()
	sess, err := w.st.CreateSession(token, agent.ID, w.cfg.DefaultRoom, now.Unix())
	if err != nil {
		w.log.Printf("connect: create session for %s: %v", agent.ID, err)
		return protocol.ConnectResponse{}, AsError(err)
	}

	w.postEvent(sess.RoomID, EventConnect, agent.ID, agent.Name,
		fmt.Sprintf("%s enters the world.", agent.Name), now)

	view, werr := w.buildStateView(sess, agent, now)
	if werr != nil {
		return protocol.ConnectResponse{}, werr
	}
	return protocol.ConnectResponse{
		Response:     protocol.OK(),
		SessionToken: token,
		StateView:    view,
	}, nil
}

// resolveSession validates a token. Inactive sessions report not-found;
// active-but-idle sessions are lazily deactivated and report expired.
func (w *World) resolveSession(token string, now time.Time) (*store.Session, *Error) {
	if token == "" {
		return nil, errf(protocol.ErrBadRequest, "session_token is required")
	}
	sess, err := w.st.GetSession(token)
	if err != nil {
		return nil, AsError(err)
	}
	if !sess.Active {
		return nil, errf(protocol.ErrSessionNotFound, "invalid session token")
	}
	if sess.LastAction < w.idleCutoff(now) {
		if err := w.st.DeactivateSession(token); err != nil {
			w.log.Printf("resolve: deactivate expired %s: %v", token, err)
		}
		return nil, errf(protocol.ErrSessionExpired, "session expired after inactivity")
	}
	return sess, nil
}

// State returns the current view for a session and refreshes its activity.
func (w *World) State(token string) (protocol.StateResponse, *Error) {
	now := w.now()
	sess, werr := w.resolveSession(token, now)
	if werr != nil {
		return protocol.StateResponse{}, werr
	}
	if err := w.st.TouchSession(token, now.Unix()); err != nil {
		w.log.Printf("state: touch %s: %v", token, err)
	}
	agent, err := w.st.GetAgent(sess.AgentID)
	if err != nil {
		return protocol.StateResponse{}, AsError(err)
	}
	view, werr := w.buildStateView(sess, agent, now)
	if werr != nil {
		return protocol.StateResponse{}, werr
	}
	return protocol.StateResponse{Response: protocol.OK(), StateView: view}, nil
}

// Disconnect closes a session and announces the departure. Idempotent:
// unknown or already-inactive tokens succeed without effect.
func (w *World) Disconnect(token string) (protocol.DisconnectResponse, *Error) {
	now := w.now()
	sess, err := w.st.GetSession(token)
	if err != nil || !sess.Active {
		return protocol.DisconnectResponse{Response: protocol.OK()}, nil
	}
	if err := w.st.DeactivateSession(token); err != nil {
		w.log.Printf("disconnect: %s: %v", token, err)
		return protocol.DisconnectResponse{}, AsError(err)
	}
	if agent, err := w.st.GetAgent(sess.AgentID); err == nil {
		w.postEvent(sess.RoomID, EventDisconnect, agent.ID, agent.Name,
			fmt.Sprintf("%s leaves the world.", agent.Name), now)
	}
	return protocol.DisconnectResponse{Response: protocol.OK()}, nil
}

// ExpireIdleSessions deactivates sessions idle past the timeout window.
// Expiry is already lazy on lookup; the sweep keeps occupant lists and the
// sessions table tidy between lookups.
func (w *World) ExpireIdleSessions() (int, error) {
	return w.st.ExpireIdleSessions(w.idleCutoff(w.now()))
}

// StartSweeper runs the idle-session sweep until stop is closed.
func (w *World) StartSweeper(stop <-chan struct{}) {
	interval := time.Duration(w.cfg.SweepEveryMinutes) * time.Minute
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				n, err := w.ExpireIdleSessions()
				if err != nil {
					w.log.Printf("sweep: %v", err)
					continue
				}
				if n > 0 {
					w.log.Printf("sweep: expired %d idle sessions", n)
				}
			}
		}
	}()
}
