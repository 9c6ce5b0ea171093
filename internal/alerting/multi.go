package alerting

import (
	"context"
	"errors"
	"sync"
)

// MultiAlerter fans an alert out to several alerters in parallel and
// joins their errors. One failing channel never blocks the others.
type MultiAlerter struct {
	alerters []Alerter
}

// NewMultiAlerter creates a fan-out alerter.
func NewMultiAlerter(alerters ...Alerter) *MultiAlerter {
	return &MultiAlerter{alerters: alerters}
}

func (m *MultiAlerter) Alert(ctx context.Context, severity Severity, message string, fields map[string]string) error {
	errs := make([]error, len(m.alerters))

	var wg sync.WaitGroup
	for i, a := range m.alerters {
		wg.Add(1)
		go func(i int, a Alerter) {
			defer wg.Done()
			errs[i] = a.Alert(ctx, severity, message, fields)
		}(i, a)
	}
	wg.Wait()

	return errors.Join(errs...)
}
