package wizard

import (
	"context"

	"go.uber.org/zap"
)

// Submission is everything the seam receives at Review.
type Submission struct {
	Kind     Kind
	OwnerID  string
	Book     BookDraft
	Location LocationDraft
}

// Submitter persists a finished listing. Implementations define their own
// retry and error contract; the wizard only distinguishes success from
// failure.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (Receipt, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, s Submission) (Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, s Submission) (Receipt, error) { return f(ctx, s) }

// NopSubmitter accepts everything and returns an empty receipt.
type NopSubmitter struct{}

func (NopSubmitter) Submit(context.Context, Submission) (Receipt, error) { return Receipt{}, nil }

// LogSubmitter logs the submission instead of persisting it. Local runs only.
type LogSubmitter struct{ Log *zap.Logger }

func (s LogSubmitter) Submit(_ context.Context, sub Submission) (Receipt, error) {
	if s.Log != nil {
		s.Log.Info("listing submitted (log only)",
			zap.String("kind", string(sub.Kind)),
			zap.String("owner_id", sub.OwnerID),
			zap.String("isbn", sub.Book.ISBN),
			zap.String("title", sub.Book.Title),
			zap.Float64("price", sub.Book.Price),
			zap.String("city", sub.Location.City),
		)
	}
	return Receipt{}, nil
}
