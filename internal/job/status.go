package job

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind enumerates the lifecycle states of a Download.
type Kind int

const (
	Pending Kind = iota
	Downloading
	Completed
	Failed
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "Pending"
	case Downloading:
		return "Downloading"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	case Cancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Status is a tagged variant. Reason is only meaningful for Failed.
type Status struct {
	Kind   Kind
	Reason string
}

var (
	StatusPending     = Status{Kind: Pending}
	StatusDownloading = Status{Kind: Downloading}
	StatusCompleted   = Status{Kind: Completed}
	StatusCancelled   = Status{Kind: Cancelled}
)

// StatusFailed builds the Failed variant.
func StatusFailed(reason string) Status {
	return Status{Kind: Failed, Reason: reason}
}

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	switch s.Kind {
	case Completed, Failed, Cancelled:
		return true
	case Pending, Downloading:
		return false
	default:
		return false
	}
}

func (s Status) String() string {
	if s.Kind == Failed {
		return fmt.Sprintf("Failed(%s)", s.Reason)
	}
	return s.Kind.String()
}

// CanTransition reports whether moving from s to next keeps the lifecycle
// monotonic: Pending -> Downloading -> terminal. Pending may also go straight
// to a terminal state, and rewriting the same state is allowed.
func (s Status) CanTransition(next Status) bool {
	if s.Kind == next.Kind {
		return true
	}
	switch s.Kind {
	case Pending:
		return true
	case Downloading:
		return next.Terminal()
	case Completed, Failed, Cancelled:
		return false
	default:
		return false
	}
}

// MarshalJSON writes unit variants as a bare string and Failed as
// {"Failed": "<reason>"}.
func (s Status) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case Pending, Downloading, Completed, Cancelled:
		return json.Marshal(s.Kind.String())
	case Failed:
		return json.Marshal(map[string]string{"Failed": s.Reason})
	default:
		return nil, fmt.Errorf("unknown status kind %d", int(s.Kind))
	}
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "Pending":
			*s = StatusPending
		case "Downloading":
			*s = StatusDownloading
		case "Completed":
			*s = StatusCompleted
		case "Cancelled":
			*s = StatusCancelled
		default:
			return fmt.Errorf("unknown status %q", name)
		}
		return nil
	}

	var tagged map[string]string
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("malformed status: %w", err)
	}
	reason, ok := tagged["Failed"]
	if !ok || len(tagged) != 1 {
		return errors.New("malformed status: expected {\"Failed\": reason}")
	}
	*s = StatusFailed(reason)
	return nil
}
