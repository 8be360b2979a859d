package world

import (
	"time"

	"github.com/google/uuid"

	"moltmud.ai/internal/observerproto"
	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/store"
)

// postEvent records a room-scoped presence/economy event: it is persisted as
// an authorless event row in the room log (so agents see it in
// recent_messages), pushed to the observer feed, and written to the audit
// trail. None of these gate the state change that produced the event.
func (w *World) postEvent(roomID, kind, agentID, agentName, text string, now time.Time) {
	msg := &store.Message{
		ID:        "msg_" + uuid.NewString(),
		RoomID:    roomID,
		Content:   text,
		Kind:      protocol.MessageEvent,
		CreatedAt: now.Unix(),
	}
	if err := w.st.InsertMessage(msg, w.cfg.MessageRetention); err != nil {
		w.log.Printf("broadcast: persist %s event: %v", kind, err)
	}
	w.publish(roomID, kind, agentID, agentName, text, now)
	w.auditEvent(now.Unix(), kind, agentID, roomID, map[string]any{"text": text})
}

// postChat records an authored chat line and fans it out like an event.
func (w *World) postChat(roomID, agentID, agentName, text string, now time.Time) (*store.Message, error) {
	msg := &store.Message{
		ID:        "msg_" + uuid.NewString(),
		AgentID:   agentID,
		AgentName: agentName,
		RoomID:    roomID,
		Content:   text,
		Kind:      protocol.MessageChat,
		CreatedAt: now.Unix(),
	}
	if err := w.st.InsertMessage(msg, w.cfg.MessageRetention); err != nil {
		return nil, err
	}
	w.publish(roomID, EventChat, agentID, agentName, text, now)
	w.auditEvent(now.Unix(), EventChat, agentID, roomID, map[string]any{"text": text})
	return msg, nil
}

func (w *World) publish(roomID, kind, agentID, agentName, text string, now time.Time) {
	w.feed.Publish(observerproto.EventMsg{
		Type:            "EVENT",
		ProtocolVersion: observerproto.Version,
		RoomID:          roomID,
		Kind:            kind,
		AgentID:         agentID,
		AgentName:       agentName,
		Text:            text,
		TS:              now.Unix(),
	})
}
