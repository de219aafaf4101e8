package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Mode selects how sources are fetched
type Mode string

const (
	// ModeBackfill re-fetches the whole history of every source in ascending order
	ModeBackfill Mode = "backfill"
	// ModeIncremental fetches only events newer than the per-source watermark
	ModeIncremental Mode = "incremental"
)

// ParseMode converts a CLI value into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBackfill:
		return ModeBackfill, nil
	case ModeIncremental:
		return ModeIncremental, nil
	default:
		return "", goerr.New("invalid mode, must be backfill or incremental",
			goerr.V("mode", s),
			goerr.T(ErrTagConfig),
		)
	}
}

func (m Mode) String() string {
	return string(m)
}

// Direction is the event time ordering requested from the remote API
type Direction string

const (
	DirectionAsc  Direction = "ASC"
	DirectionDesc Direction = "DESC"
)
