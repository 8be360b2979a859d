package world

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/store"
)

func handleMove(w *World, sess *store.Session, agent *store.Agent, params json.RawMessage, now time.Time) (map[string]any, *Error) {
	var p protocol.MoveParams
	if werr := decodeParams(params, &p); werr != nil {
		return nil, werr
	}
	dir := strings.TrimSpace(p.Direction)
	if dir == "" {
		return nil, errf(protocol.ErrValidation, "direction is required")
	}

	exit, ok := w.graph.FindExit(sess.RoomID, dir)
	if !ok {
		available := make([]string, 0, 4)
		for _, e := range w.graph.Exits(sess.RoomID) {
			available = append(available, e.Direction)
		}
		avail := "none"
		if len(available) > 0 {
			avail = strings.Join(available, ", ")
		}
		return nil, errf(protocol.ErrInvalidExit, "no exit to the %s; available exits: %s", dir, avail)
	}

	fromID := sess.RoomID
	if err := w.st.MoveSession(sess.Token, exit.To, now.Unix()); err != nil {
		w.log.Printf("move: %s %s->%s: %v", agent.ID, fromID, exit.To, err)
		return nil, AsError(err)
	}
	sess.RoomID = exit.To

	from := w.graph.Room(fromID)
	to := w.graph.Room(exit.To)
	w.postEvent(fromID, EventDepart, agent.ID, agent.Name,
		fmt.Sprintf("%s heads %s to %s.", agent.Name, exit.Direction, to.Name), now)
	w.postEvent(exit.To, EventArrive, agent.ID, agent.Name,
		fmt.Sprintf("%s arrives from %s.", agent.Name, from.Name), now)

	info := w.roomInfo(exit.To)
	return map[string]any{
		"message":  fmt.Sprintf("You move %s to %s.\n\n%s", exit.Direction, info.Name, info.Description),
		"location": info,
	}, nil
}
