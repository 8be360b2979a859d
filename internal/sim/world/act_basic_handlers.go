package world

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/store"
)

func handleLook(w *World, sess *store.Session, _ *store.Agent, _ json.RawMessage, _ time.Time) (map[string]any, *Error) {
	info := w.roomInfo(sess.RoomID)
	var b strings.Builder
	fmt.Fprintf(&b, "You are in %s. %s", info.Name, info.Description)
	if len(info.Exits) > 0 {
		b.WriteString("\nExits:")
		for _, e := range info.Exits {
			fmt.Fprintf(&b, "\n  %s: %s", e.Direction, e.ToName)
		}
	}
	return map[string]any{
		"message":  b.String(),
		"location": info,
	}, nil
}

func handleSay(w *World, sess *store.Session, agent *store.Agent, params json.RawMessage, now time.Time) (map[string]any, *Error) {
	var p protocol.SayParams
	if werr := decodeParams(params, &p); werr != nil {
		return nil, werr
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return nil, errf(protocol.ErrValidation, "text is required")
	}
	if len(text) > w.cfg.Limits.MaxSayLen {
		return nil, errf(protocol.ErrValidation, "text exceeds %d characters", w.cfg.Limits.MaxSayLen)
	}
	msg, err := w.postChat(sess.RoomID, agent.ID, agent.Name, text, now)
	if err != nil {
		w.log.Printf("say: %s in %s: %v", agent.ID, sess.RoomID, err)
		return nil, AsError(err)
	}
	return map[string]any{
		"message":    fmt.Sprintf("You say: %q", text),
		"message_id": msg.ID,
	}, nil
}

func handleExits(w *World, sess *store.Session, _ *store.Agent, _ json.RawMessage, _ time.Time) (map[string]any, *Error) {
	info := w.roomInfo(sess.RoomID)
	if len(info.Exits) == 0 {
		return map[string]any{
			"message": "There are no exits from this room.",
			"exits":   info.Exits,
		}, nil
	}
	lines := make([]string, 0, len(info.Exits))
	for _, e := range info.Exits {
		lines = append(lines, fmt.Sprintf("  %s: %s", e.Direction, e.ToName))
	}
	return map[string]any{
		"message": "Exits:\n" + strings.Join(lines, "\n"),
		"exits":   info.Exits,
	}, nil
}

func handleWho(w *World, sess *store.Session, _ *store.Agent, _ json.RawMessage, now time.Time) (map[string]any, *Error) {
	occ, err := w.st.Occupants(sess.RoomID, w.idleCutoff(now))
	if err != nil {
		return nil, AsError(err)
	}
	infos := make([]protocol.AgentInfo, 0, len(occ))
	names := make([]string, 0, len(occ))
	for _, a := range occ {
		infos = append(infos, agentInfo(a))
		names = append(names, a.Name)
	}
	return map[string]any{
		"message": "Agents here: " + strings.Join(names, ", "),
		"agents":  infos,
	}, nil
}

func handleProfile(w *World, _ *store.Session, agent *store.Agent, _ json.RawMessage, _ time.Time) (map[string]any, *Error) {
	return map[string]any{
		"agent":            agentInfo(*agent),
		"influence_earned": agent.InfluenceEarned,
		"influence_spent":  agent.InfluenceSpent,
	}, nil
}
