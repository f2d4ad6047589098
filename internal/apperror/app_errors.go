package apperror

import "errors"

var (
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrInvalidCell       = errors.New("invalid cell index")
	ErrInvalidRole       = errors.New("invalid role")
	ErrGameConcluded     = errors.New("game is already concluded")
	ErrGameNotStarted    = errors.New("game is not started")
	ErrNotParticipant    = errors.New("identity is not bound to a role")
	ErrNotYourCard       = errors.New("cell belongs to the opponent's card")
	ErrVariantAlreadySet = errors.New("variant is already set")
	ErrVariantMismatch   = errors.New("operation does not match the session variant")
	ErrRoundNotConcluded = errors.New("round is not concluded")
	ErrVariantNotSet     = errors.New("variant is not set")
	ErrUnknownVariant    = errors.New("unknown variant")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidMessage    = errors.New("message content is not allowed")
)
