package buddy

import "errors"

var (
	// ErrBadConfig indicates Config.K is outside [MinK, MaxK].
	ErrBadConfig = errors.New("buddy: pool size out of range")
)
