package world

import (
	"time"

	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/store"
)

var availableActions = []string{
	protocol.ActionLook,
	protocol.ActionSay,
	protocol.ActionMove,
	protocol.ActionExits,
	protocol.ActionWho,
	protocol.ActionProfile,
	protocol.ActionShareFragment,
	protocol.ActionPurchaseFragment,
	protocol.ActionRateFragment,
}

func agentInfo(a store.Agent) protocol.AgentInfo {
	return protocol.AgentInfo{
		ID:          a.ID,
		Name:        a.Name,
		Bio:         a.Bio,
		Emoji:       a.Emoji,
		Influence:   a.Influence,
		Reputation:  a.Reputation(),
		RatingCount: a.RatingCount,
	}
}

func (w *World) roomInfo(roomID string) protocol.RoomInfo {
	r := w.graph.Room(roomID)
	if r == nil {
		return protocol.RoomInfo{ID: roomID}
	}
	info := protocol.RoomInfo{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Exits:       make([]protocol.ExitInfo, 0, len(r.Exits)),
	}
	for _, e := range r.Exits {
		toName := e.To
		if dst := w.graph.Room(e.To); dst != nil {
			toName = dst.Name
		}
		info.Exits = append(info.Exits, protocol.ExitInfo{
			Direction: e.Direction,
			To:        e.To,
			ToName:    toName,
		})
	}
	return info
}

func messageInfo(m store.Message) protocol.MessageInfo {
	return protocol.MessageInfo{
		ID:        m.ID,
		AgentID:   m.AgentID,
		AgentName: m.AgentName,
		RoomID:    m.RoomID,
		Text:      m.Content,
		Kind:      m.Kind,
		CreatedAt: m.CreatedAt,
	}
}

func (w *World) fragmentInfo(f store.Fragment, authorName string, now time.Time) protocol.FragmentInfo {
	return protocol.FragmentInfo{
		ID:            f.ID,
		AuthorID:      f.AgentID,
		AuthorName:    authorName,
		RoomID:        f.RoomID,
		Content:       f.Content,
		Topics:        f.Topics,
		Value:         w.valuation(f, now),
		PurchaseCount: f.PurchaseCount,
		AvgRating:     f.AvgRating(),
		CreatedAt:     f.CreatedAt,
	}
}

// buildStateView assembles the full game-state payload for one session:
// the agent, its room with exits, co-located agents, the recent room log and
// the fragment wall with freshly computed valuations.
func (w *World) buildStateView(sess *store.Session, agent *store.Agent, now time.Time) (protocol.StateView, *Error) {
	view := protocol.StateView{
		Agent:            agentInfo(*agent),
		Location:         w.roomInfo(sess.RoomID),
		AvailableActions: availableActions,
		NearbyAgents:     []protocol.AgentInfo{},
		RecentMessages:   []protocol.MessageInfo{},
		FragmentsOnWall:  []protocol.FragmentInfo{},
	}

	occ, err := w.st.Occupants(sess.RoomID, w.idleCutoff(now))
	if err != nil {
		w.log.Printf("state: occupants %s: %v", sess.RoomID, err)
		return view, AsError(err)
	}
	names := map[string]string{agent.ID: agent.Name}
	for _, a := range occ {
		names[a.ID] = a.Name
		if a.ID == agent.ID {
			continue
		}
		view.NearbyAgents = append(view.NearbyAgents, agentInfo(a))
	}

	msgs, err := w.st.RecentMessages(sess.RoomID, w.cfg.RecentMessages)
	if err != nil {
		w.log.Printf("state: messages %s: %v", sess.RoomID, err)
		return view, AsError(err)
	}
	for _, m := range msgs {
		view.RecentMessages = append(view.RecentMessages, messageInfo(m))
	}

	frags, err := w.st.FragmentsInRoom(sess.RoomID, w.cfg.WallFragments)
	if err != nil {
		w.log.Printf("state: fragments %s: %v", sess.RoomID, err)
		return view, AsError(err)
	}
	for _, f := range frags {
		name := names[f.AgentID]
		if name == "" {
			if a, err := w.st.GetAgent(f.AgentID); err == nil {
				name = a.Name
				names[f.AgentID] = name
			}
		}
		view.FragmentsOnWall = append(view.FragmentsOnWall, w.fragmentInfo(f, name, now))
	}
	return view, nil
}
