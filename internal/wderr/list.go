package wderr

import (
	"fmt"
	"strings"
)

// List is an error that collects multiple child errors under one kind.
type List struct {
	What     error
	Children []error
}

// Error implements error interface.
func (l List) Error() string {
	ss := make([]string, len(l.Children))
	for i, e := range l.Children {
		ss[i] = e.Error()
	}
	return l.What.Error() + ": " + strings.Join(ss, "; ")
}

// Unwrap implement for errors.Unwrap.
// This function returns What member.
func (l List) Unwrap() error {
	return l.What
}

func (l List) Is(err error) bool {
	if l.What == err {
		return true
	}
	for _, e := range l.Children {
		if e == err {
			return true
		}
	}
	return false
}

// ListBuilder collects errors and builds a List only if any were pushed.
type ListBuilder struct {
	What     error
	Children []error
}

// Pushf formats an error with fmt.Errorf and records it as a child.
func (lb *ListBuilder) Pushf(format string, values ...interface{}) {
	lb.Children = append(lb.Children, fmt.Errorf(format, values...))
}

// Build creates List if it has any child.
// It returns nil if there is no child.
func (lb *ListBuilder) Build() error {
	if len(lb.Children) == 0 {
		return nil
	}

	return List{
		What:     lb.What,
		Children: lb.Children,
	}
}
