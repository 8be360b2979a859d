package store

// Agent is a durable participant identity.
type Agent struct {
	ID              string
	Name            string
	Bio             string
	Emoji           string
	Influence       float64
	InfluenceEarned float64
	InfluenceSpent  float64
	RatingSum       int
	RatingCount     int
	Active          bool
	CreatedAt       int64
}

// Reputation is the mean of ratings received on the agent's fragments,
// 0 when unrated.
func (a Agent) Reputation() float64 {
	if a.RatingCount == 0 {
		return 0
	}
	return float64(a.RatingSum) / float64(a.RatingCount)
}

// Session binds a token to an agent and its current room.
type Session struct {
	Token      string
	AgentID    string
	RoomID     string
	CreatedAt  int64
	LastAction int64
	Active     bool
}

// Fragment is a unit of purchasable knowledge. Topics is stored as a JSON
// array; CurrentValue is a display cache only, never trusted at purchase time.
type Fragment struct {
	ID              string
	AgentID         string
	RoomID          string
	Content         string
	Topics          []string
	BaseValue       float64
	CurrentValue    float64
	PurchaseCount   int
	TotalEarned     float64
	RatingSum       int
	RatingCount     int
	CreatedAt       int64
	LastPurchasedAt int64 // 0 when never purchased
}

func (f Fragment) AvgRating() float64 {
	if f.RatingCount == 0 {
		return 0
	}
	return float64(f.RatingSum) / float64(f.RatingCount)
}

// Purchase is an immutable transaction record. Rating is 0 until the buyer
// rates it (valid ratings are 1..5).
type Purchase struct {
	ID          string
	FragmentID  string
	BuyerID     string
	SellerID    string
	Amount      float64
	Rating      int
	PurchasedAt int64
	RatedAt     int64
}

// Message is one room-log entry. AgentID is empty for event/system rows.
type Message struct {
	ID        string
	AgentID   string
	AgentName string // joined from agents; empty for event/system rows
	RoomID    string
	Content   string
	Kind      string
	CreatedAt int64
}

// PurchaseReceipt is returned by PurchaseFragment.
type PurchaseReceipt struct {
	PurchaseID      string
	FragmentID      string
	BuyerID         string
	SellerID        string
	Amount          float64
	NewBuyerBalance float64
}
