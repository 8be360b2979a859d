package world

import (
	"encoding/json"
	"time"

	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/store"
)

type actHandler func(w *World, sess *store.Session, agent *store.Agent, params json.RawMessage, now time.Time) (map[string]any, *Error)

var actHandlers = map[string]actHandler{
	protocol.ActionLook:             handleLook,
	protocol.ActionSay:              handleSay,
	protocol.ActionMove:             handleMove,
	protocol.ActionExits:            handleExits,
	protocol.ActionWho:              handleWho,
	protocol.ActionProfile:          handleProfile,
	protocol.ActionShareFragment:    handleShareFragment,
	protocol.ActionPurchaseFragment: handlePurchaseFragment,
	protocol.ActionRateFragment:     handleRateFragment,
}

// Act resolves the session, dispatches the action and, on success, refreshes
// session activity and returns the updated state view. A failed action leaves
// all state untouched and reports a typed error.
func (w *World) Act(token, action string, params json.RawMessage) (protocol.ActResponse, *Error) {
	now := w.now()
	sess, werr := w.resolveSession(token, now)
	if werr != nil {
		return protocol.ActResponse{}, werr
	}
	handler, ok := actHandlers[action]
	if !ok {
		return protocol.ActResponse{}, errf(protocol.ErrUnknownAction, "unknown action: %s", action)
	}
	agent, err := w.st.GetAgent(sess.AgentID)
	if err != nil {
		return protocol.ActResponse{}, AsError(err)
	}

	result, werr := handler(w, sess, agent, params, now)
	if werr != nil {
		return protocol.ActResponse{}, werr
	}

	if err := w.st.TouchSession(token, now.Unix()); err != nil {
		w.log.Printf("act: touch %s: %v", token, err)
	}

	// Re-read the session and agent: the action may have moved the session or
	// changed the balance.
	sess, err = w.st.GetSession(token)
	if err != nil {
		return protocol.ActResponse{}, AsError(err)
	}
	agent, err = w.st.GetAgent(sess.AgentID)
	if err != nil {
		return protocol.ActResponse{}, AsError(err)
	}
	view, werr := w.buildStateView(sess, agent, now)
	if werr != nil {
		return protocol.ActResponse{}, werr
	}
	return protocol.ActResponse{
		Response: protocol.OK(),
		Result:   result,
		NewState: &view,
	}, nil
}

func decodeParams(params json.RawMessage, v any) *Error {
	if len(params) == 0 {
		return errf(protocol.ErrBadRequest, "missing params")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return errf(protocol.ErrBadRequest, "malformed params: %v", err)
	}
	return nil
}
