package domain

import "errors"

// Error taxonomy for the ordering core. Handlers map these onto HTTP status
// codes; services wrap them with context via fmt.Errorf("...: %w", err).
var (
	ErrNotFound             = errors.New("not_found")
	ErrInvalidRequest       = errors.New("invalid_request")
	ErrItemUnavailable      = errors.New("item_unavailable")
	ErrInvalidRedemption    = errors.New("invalid_redemption")
	ErrInvalidTransition    = errors.New("invalid_transition")
	ErrStorage              = errors.New("storage_error")
	ErrRealtimeDisconnected = errors.New("realtime_disconnected")
	ErrUnauthorized         = errors.New("unauthorized")
)
