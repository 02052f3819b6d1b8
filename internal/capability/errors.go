package capability

import "errors"

//nolint:gochecknoglobals // sentinel errors
var (
	ErrUnknownProvider = errors.New("capability: unknown provider")
	ErrInvalidOutput   = errors.New("capability: invalid output")
	ErrUnconfigured    = errors.New("capability: not configured")
)
