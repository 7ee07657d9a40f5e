package sfx

import "fmt"

// Outcome reports what a play request did
type Outcome int

const (
	// OutcomePlayed started a new instance on a freshly acquired device
	OutcomePlayed Outcome = iota
	// OutcomeRetriggered restarted the tracked instance in place
	OutcomeRetriggered
	// OutcomeSuppressed left the tracked instance playing and ignored the request
	OutcomeSuppressed
	// OutcomeDropped found no device to play on
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlayed:
		return "played"
	case OutcomeRetriggered:
		return "retriggered"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeDropped:
		return "dropped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
