package observerproto

// Version is the observer protocol version (separate from the REST API).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to update the room filter.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional: limit the feed to a single room. Empty means all rooms.
	RoomID string `json:"room_id,omitempty"`
}

// HTTP response for GET /obs/v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string     `json:"protocol_version"`
	WorldName       string     `json:"world_name"`
	Rooms           []RoomInfo `json:"rooms"`
}

type RoomInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Server -> Client. One message per room-scoped event.
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	RoomID    string `json:"room_id"`
	Kind      string `json:"kind"` // ARRIVE, DEPART, CHAT, SHARE, PURCHASE, RATE, CONNECT, DISCONNECT
	AgentID   string `json:"agent_id,omitempty"`
	AgentName string `json:"agent_name,omitempty"`
	Text      string `json:"text,omitempty"`
	TS        int64  `json:"ts"`
}
