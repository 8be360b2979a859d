package protocol

import "encoding/json"

const Version = "1.0"

// Actions accepted by the act endpoint.
const (
	ActionLook             = "look"
	ActionSay              = "say"
	ActionMove             = "move"
	ActionExits            = "exits"
	ActionWho              = "who"
	ActionProfile          = "profile"
	ActionShareFragment    = "share_fragment"
	ActionPurchaseFragment = "purchase_fragment"
	ActionRateFragment     = "rate_fragment"
)

// Message kinds stored in the room log.
const (
	MessageChat   = "chat"
	MessageSystem = "system"
	MessageEvent  = "event"
)

// Response is the uniform envelope every endpoint returns.
type Response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

func OK() Response { return Response{Success: true} }

func Fail(code, msg string) Response {
	return Response{Success: false, Error: msg, ErrorCode: code}
}

type AgentInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Bio         string  `json:"bio,omitempty"`
	Emoji       string  `json:"emoji,omitempty"`
	Influence   float64 `json:"influence"`
	Reputation  float64 `json:"reputation"`
	RatingCount int     `json:"rating_count"`
}

type ExitInfo struct {
	Direction string `json:"direction"`
	To        string `json:"to"`
	ToName    string `json:"to_name"`
}

type RoomInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Exits       []ExitInfo `json:"exits"`
}

type MessageInfo struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id,omitempty"`
	AgentName string `json:"agent_name,omitempty"`
	RoomID    string `json:"room_id"`
	Text      string `json:"text"`
	Kind      string `json:"kind"`
	CreatedAt int64  `json:"created_at"`
}

type FragmentInfo struct {
	ID            string   `json:"id"`
	AuthorID      string   `json:"author_id"`
	AuthorName    string   `json:"author_name,omitempty"`
	RoomID        string   `json:"room_id"`
	Content       string   `json:"content"`
	Topics        []string `json:"topics"`
	Value         float64  `json:"value"`
	PurchaseCount int      `json:"purchase_count"`
	AvgRating     float64  `json:"avg_rating"`
	CreatedAt     int64    `json:"created_at"`
}

// StateView is the game-state payload shared by connect, state and act
// responses.
type StateView struct {
	Agent            AgentInfo      `json:"agent"`
	Location         RoomInfo       `json:"location"`
	NearbyAgents     []AgentInfo    `json:"nearby_agents"`
	RecentMessages   []MessageInfo  `json:"recent_messages"`
	FragmentsOnWall  []FragmentInfo `json:"fragments_on_wall"`
	AvailableActions []string       `json:"available_actions"`
}

type ConnectRequest struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	Bio     string `json:"bio,omitempty"`
	Emoji   string `json:"emoji,omitempty"`
}

type ConnectResponse struct {
	Response
	SessionToken string `json:"session_token,omitempty"`
	StateView
}

type StateRequest struct {
	SessionToken string `json:"session_token"`
}

type StateResponse struct {
	Response
	StateView
}

type ActRequest struct {
	SessionToken string          `json:"session_token"`
	Action       string          `json:"action"`
	Params       json.RawMessage `json:"params,omitempty"`
}

type ActResponse struct {
	Response
	Result   map[string]any `json:"result,omitempty"`
	NewState *StateView     `json:"new_state,omitempty"`
}

type DisconnectRequest struct {
	SessionToken string `json:"session_token"`
}

type DisconnectResponse struct {
	Response
}

// Per-action params.

type SayParams struct {
	Text string `json:"text"`
}

type MoveParams struct {
	Direction string `json:"direction"`
}

type ShareFragmentParams struct {
	Content string   `json:"content"`
	Topics  []string `json:"topics"`
}

type PurchaseFragmentParams struct {
	FragmentID string `json:"fragment_id"`
}

type RateFragmentParams struct {
	PurchaseID string `json:"purchase_id"`
	Rating     int    `json:"rating"`
}
