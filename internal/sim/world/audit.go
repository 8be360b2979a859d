package world

// Event kinds recorded in the audit trail and the observer feed.
const (
	EventConnect    = "CONNECT"
	EventDisconnect = "DISCONNECT"
	EventArrive     = "ARRIVE"
	EventDepart     = "DEPART"
	EventChat       = "CHAT"
	EventShare      = "SHARE"
	EventPurchase   = "PURCHASE"
	EventRate       = "RATE"
)

// AuditEntry is one append-only economy/presence record.
type AuditEntry struct {
	TS      int64          `json:"ts"`
	Event   string         `json:"event"`
	AgentID string         `json:"agent_id,omitempty"`
	RoomID  string         `json:"room_id,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// AuditLogger is the append-only sink for audit entries; writes are
// best-effort and never gate state changes.
type AuditLogger interface {
	WriteAudit(AuditEntry) error
}

func (w *World) auditEvent(ts int64, event, agentID, roomID string, data map[string]any) {
	if w.audit == nil {
		return
	}
	if err := w.audit.WriteAudit(AuditEntry{
		TS:      ts,
		Event:   event,
		AgentID: agentID,
		RoomID:  roomID,
		Data:    data,
	}); err != nil {
		w.log.Printf("audit: %s: %v", event, err)
	}
}
