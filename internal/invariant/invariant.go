// Package invariant reports programmer errors: states the graph, resolution
// and lens code assume can never happen. Expected linking failures are
// values, never violations.
package invariant

import (
	"errors"
	"fmt"
)

// Violation is the panic payload raised by Failf.
type Violation struct {
	Op      string
	Subject string
	Detail  string
}

func (v *Violation) Error() string {
	if v.Subject == "" {
		return fmt.Sprintf("invariant violated in %s: %s", v.Op, v.Detail)
	}
	return fmt.Sprintf("invariant violated in %s on %s: %s", v.Op, v.Subject, v.Detail)
}

// Failf panics with a *Violation.
func Failf(op, subject, format string, args ...any) {
	panic(&Violation{Op: op, Subject: subject, Detail: fmt.Sprintf(format, args...)})
}

// Recover converts a *Violation panic into *errp. Other panics propagate.
// It must be deferred directly.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if v, ok := r.(*Violation); ok {
		*errp = v
		return
	}
	panic(r)
}

// As extracts a violation from an error chain.
func As(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
