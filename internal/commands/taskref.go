package commands

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	TaskNum int // 1-based row number in the rendered list
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses the task reference from the first argument and
// returns the remaining arguments.
//
// A reference is the row number printed by `gtodo list`. Anything else,
// including signs and spaces, is an invalid reference.
func ParseTaskRef(args []string) (TaskRef, []string, error) {
	if len(args) == 0 {
		return TaskRef{}, nil, ErrTaskRefRequired
	}

	first := args[0]
	if !isAllDigits(first) {
		return TaskRef{}, nil, fmt.Errorf("invalid task reference: %s", first)
	}
	num, err := strconv.Atoi(first)
	if err != nil {
		return TaskRef{}, nil, fmt.Errorf("invalid task reference: %s", first)
	}
	return TaskRef{TaskNum: num}, args[1:], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
