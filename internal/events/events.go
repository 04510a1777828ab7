// Package events fans document changes out to listeners.
package events

import (
	"context"
	"errors"

	"github.com/ukydev/opsboard/internal/models"
)

// Publisher delivers change events.
type Publisher interface {
	Publish(ctx context.Context, ev models.Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev models.Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev models.Event) error { return f(ctx, ev) }

// Multi publishes to every publisher and joins their errors. One failing
// publisher doesn't stop the rest.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev models.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, models.Event) error { return nil })
