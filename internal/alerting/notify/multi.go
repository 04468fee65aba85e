package notify

import (
	"context"
	"errors"

	"github.com/oshokin/alarm-manager/internal/escalation"
)

// Multi raises every notice on all of its notifiers. A failing notifier does
// not stop the others; their errors are joined.
type Multi []escalation.Notifier

// Raise delivers the notice to every notifier.
func (m Multi) Raise(ctx context.Context, title, body string) error {
	var errs []error

	for _, n := range m {
		if n == nil {
			continue
		}

		if err := n.Raise(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
