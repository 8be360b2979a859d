package protocol

const (
	// Transport/envelope validation.
	ErrBadRequest = "E_BAD_REQUEST"

	// Session layer.
	ErrSessionNotFound = "E_SESSION_NOT_FOUND"
	ErrSessionExpired  = "E_SESSION_EXPIRED"

	// Navigation.
	ErrInvalidExit = "E_INVALID_EXIT"

	// Knowledge economy.
	ErrFragmentNotFound      = "E_FRAGMENT_NOT_FOUND"
	ErrSelfPurchase          = "E_SELF_PURCHASE"
	ErrInsufficientInfluence = "E_INSUFFICIENT_INFLUENCE"
	ErrInvalidRating         = "E_INVALID_RATING"
	ErrDuplicateRating       = "E_DUPLICATE_RATING"

	// Action layer.
	ErrUnknownAction = "E_UNKNOWN_ACTION"
	ErrValidation    = "E_VALIDATION"
	ErrNoPermission  = "E_NO_PERMISSION"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:            {},
	ErrSessionNotFound:       {},
	ErrSessionExpired:        {},
	ErrInvalidExit:           {},
	ErrFragmentNotFound:      {},
	ErrSelfPurchase:          {},
	ErrInsufficientInfluence: {},
	ErrInvalidRating:         {},
	ErrDuplicateRating:       {},
	ErrUnknownAction:         {},
	ErrValidation:            {},
	ErrNoPermission:          {},
	ErrInternal:              {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
