// Package dispatch fans one domain event out to every matching integration,
// drives a bounded retry loop per integration, and aggregates per-integration
// outcomes into a single summary. Integrations never block or fail one
// another: each runs its own delivery task to a terminal outcome.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/async"
	"github.com/dmitrymomot/notifyhub/pkg/channel"
	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

// Dispatcher resolves an event against the integration registry and runs
// one delivery worker per matching integration.
type Dispatcher struct {
	registry *integration.Registry
	adapters map[integration.Channel]channel.Adapter
	policy   RetryPolicy
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAdapter registers a channel adapter, replacing any previous adapter
// for the same channel.
func WithAdapter(adapter channel.Adapter) Option {
	return func(d *Dispatcher) {
		if adapter != nil {
			d.adapters[adapter.Name()] = adapter
		}
	}
}

// WithAdapters registers multiple channel adapters.
func WithAdapters(adapters ...channel.Adapter) Option {
	return func(d *Dispatcher) {
		for _, a := range adapters {
			WithAdapter(a)(d)
		}
	}
}

// WithRetryPolicy sets the default retry policy for dispatches that do not
// carry their own.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(d *Dispatcher) {
		d.policy = policy.normalize()
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a dispatcher bound to a registry.
func New(registry *integration.Registry, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrRegistryNil
	}

	d := &Dispatcher{
		registry: registry,
		adapters: make(map[integration.Channel]channel.Adapter),
		policy:   DefaultRetryPolicy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// WithRegistry returns a dispatcher that shares this dispatcher's adapters,
// policy, and logger but resolves integrations from reg. Used when a
// dispatch request carries its own integration set.
func (d *Dispatcher) WithRegistry(reg *integration.Registry) *Dispatcher {
	clone := *d
	clone.registry = reg
	return &clone
}

// DispatchOption adjusts a single dispatch call.
type DispatchOption func(*RetryPolicy)

// WithPolicy overrides the retry policy for this dispatch only.
func WithPolicy(policy RetryPolicy) DispatchOption {
	return func(p *RetryPolicy) {
		*p = policy.normalize()
	}
}

// Dispatch delivers the event to every enabled integration subscribed to
// its type. Deliveries run concurrently and independently; the summary's
// outcome list preserves the registry selection order regardless of
// completion order. Zero matching integrations is not an error and yields
// an all-zero summary.
func (d *Dispatcher) Dispatch(ctx context.Context, ev channel.Event, opts ...DispatchOption) Summary {
	policy := d.policy
	for _, opt := range opts {
		opt(&policy)
	}

	selected := d.registry.Select(ev.Type)
	if len(selected) == 0 {
		d.logger.DebugContext(ctx, "no integrations matched event",
			slog.String("event_type", ev.Type))
		return newSummary(ev.Type, nil)
	}

	futures := make([]*async.Future[Outcome], len(selected))
	for i, in := range selected {
		futures[i] = async.Async(ctx, in, func(ctx context.Context, in integration.Integration) (Outcome, error) {
			return d.deliver(ctx, in, ev, policy), nil
		})
	}

	outcomes := make([]Outcome, len(selected))
	for i, f := range futures {
		outcome, err := f.Await()
		if err != nil {
			// Pre-canceled context: the delivery task never ran.
			outcome = Outcome{
				IntegrationID: selected[i].ID,
				Integration:   selected[i].Name,
				LastError:     err.Error(),
			}
		}
		outcomes[i] = outcome
	}

	summary := newSummary(ev.Type, outcomes)
	d.logger.InfoContext(ctx, "dispatch completed",
		slog.String("event_type", ev.Type),
		slog.Int("total", summary.Total),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed))
	return summary
}

// deliver drives the attempt loop for one integration: call the adapter,
// append the attempt, stop on success, otherwise wait the fixed delay and
// retry until the bound is reached. The wait is a cancellable suspension so
// shutdown does not hang on sleeping retries; attempts already appended are
// kept either way.
func (d *Dispatcher) deliver(ctx context.Context, in integration.Integration, ev channel.Event, policy RetryPolicy) Outcome {
	outcome := Outcome{IntegrationID: in.ID, Integration: in.Name}

	adapter, ok := d.adapters[in.Channel]
	if !ok {
		outcome.LastError = fmt.Sprintf("no adapter registered for channel %q", in.Channel)
		d.logger.ErrorContext(ctx, "delivery skipped",
			slog.String("integration", in.Name),
			slog.String("channel", string(in.Channel)),
			slog.String("error", outcome.LastError))
		return outcome
	}

	for number := 1; ; number++ {
		attempt := adapter.Attempt(ctx, in, ev)
		attempt.IntegrationID = in.ID
		attempt.Number = number
		outcome.Attempts = append(outcome.Attempts, attempt)

		if attempt.Success() {
			outcome.Success = true
			outcome.Response = attempt.Response
			outcome.LastError = ""
			d.logger.DebugContext(ctx, "delivery succeeded",
				slog.String("integration", in.Name),
				slog.Int("attempt", number))
			return outcome
		}

		outcome.LastError = attempt.Error
		d.logger.WarnContext(ctx, "delivery attempt failed",
			slog.String("integration", in.Name),
			slog.Int("attempt", number),
			slog.String("status", string(attempt.Status)),
			slog.String("error", attempt.Error))

		if number > policy.MaxRetries {
			return outcome
		}

		select {
		case <-ctx.Done():
			d.logger.WarnContext(ctx, "delivery abandoned",
				slog.String("integration", in.Name),
				slog.Int("attempts", number),
				slog.String("reason", ctx.Err().Error()))
			return outcome
		case <-time.After(policy.RetryDelay):
		}
	}
}
