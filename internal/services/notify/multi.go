package notify

import (
	"context"
	"errors"
	"sync"

	"speedguard/internal/model"
)

// Notifier delivers an alert.
type Notifier interface {
	Notify(ctx context.Context, alert model.Alert) error
}

// Multi fans an alert out to every notifier at once, so a hanging channel
// cannot use up the deadline of the others. Errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, alert model.Alert) error {
	errs := make([]error, len(m))

	var wg sync.WaitGroup
	for i, n := range m {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = n.Notify(ctx, alert)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
