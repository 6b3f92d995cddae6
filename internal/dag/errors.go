package dag

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTree = errors.New("invalid dependency tree")
	ErrCycleFound  = errors.New("cycle detected")
)

// TreeError wraps deterministic tree validation failures.
type TreeError struct {
	Kind error
	Msg  string
}

func (e *TreeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *TreeError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &TreeError{Kind: ErrInvalidTree, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &TreeError{Kind: ErrCycleFound, Msg: msg}
}
