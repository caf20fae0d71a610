package spec

import (
	"fmt"
	"strings"
)

// Kind is the shape of workload a Deployment describes.
type Kind int

const (
	Service Kind = iota + 1
	Job
	Worker
)

func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "service":
		return Service, nil
	case "job":
		return Job, nil
	case "worker":
		return Worker, nil
	default:
		return 0, &UnsupportedKindError{Kind: value}
	}
}

func (kind Kind) String() string {
	switch kind {
	case Service:
		return "service"
	case Job:
		return "job"
	case Worker:
		return "worker"
	default:
		return fmt.Sprintf("kind(%d)", int(kind))
	}
}

// LongRunning reports whether the kind runs as a replicated Deployment that can be exposed and scaled.
func (kind Kind) LongRunning() bool {
	switch kind {
	case Service, Worker:
		return true
	case Job:
		return false
	default:
		panic(fmt.Sprintf("unhandled kind: %v", kind))
	}
}

func (kind Kind) MarshalText() ([]byte, error) {
	return []byte(kind.String()), nil
}

func (kind *Kind) UnmarshalText(data []byte) error {
	value, err := ParseKind(string(data))
	if err != nil {
		return err
	}
	*kind = value
	return nil
}
