package world

import (
	"errors"
	"fmt"

	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/store"
)

// Error is a typed engine failure carrying a protocol error code. Transports
// translate it into the uniform response envelope; anything else that escapes
// the engine is an infrastructure fault reported as E_INTERNAL.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

func errf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts a typed engine error, mapping known store sentinels.
// Unrecognized errors come back as E_INTERNAL with a generic message so
// storage details never leak to callers.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		return errf(protocol.ErrSessionNotFound, "invalid session token")
	case errors.Is(err, store.ErrFragmentNotFound):
		return errf(protocol.ErrFragmentNotFound, "fragment not found")
	case errors.Is(err, store.ErrPurchaseNotFound):
		return errf(protocol.ErrFragmentNotFound, "purchase not found")
	case errors.Is(err, store.ErrSelfPurchase):
		return errf(protocol.ErrSelfPurchase, "cannot purchase your own fragment")
	case errors.Is(err, store.ErrInsufficientInfluence):
		return errf(protocol.ErrInsufficientInfluence, "insufficient influence")
	case errors.Is(err, store.ErrNotBuyer):
		return errf(protocol.ErrNoPermission, "only the buyer of a purchase may rate it")
	case errors.Is(err, store.ErrDuplicateRating):
		return errf(protocol.ErrDuplicateRating, "purchase already rated")
	case errors.Is(err, store.ErrAgentNotFound):
		return errf(protocol.ErrSessionNotFound, "agent record missing")
	}
	return errf(protocol.ErrInternal, "internal error")
}
