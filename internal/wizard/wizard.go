// Package wizard implements the multi-step "Sell a Book" / "Rent a Book"
// listing flow: Book Details, Location, Review, Success.
//
// A Wizard owns one State and is the only thing that mutates it. Steps hand
// it validated partials; the host supplies Hooks and a Submitter.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrWrongStep         = errors.New("wizard: action not allowed at current step")
	ErrTerminal          = errors.New("wizard: listing already submitted")
	ErrInvalidTransition = errors.New("wizard: invalid transition")
	ErrClosed            = errors.New("wizard: closed")
	ErrSubmitFailed      = errors.New("wizard: submission failed")
)

// Hooks are the host's callbacks, run synchronously.
type Hooks struct {
	OnClose     func()
	OnSubmitted func(Receipt)
}

type Wizard struct {
	state     State
	submitter Submitter
	hooks     Hooks
	now       func() time.Time
	closed    bool
}

type Option func(*Wizard)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// New builds a wizard for kind and starts it.
func New(kind Kind, sub Submitter, hooks Hooks, opts ...Option) *Wizard {
	w := &Wizard{submitter: sub, hooks: hooks, now: time.Now}
	for _, o := range opts {
		o(w)
	}
	w.state.Kind = kind
	w.Start()
	return w
}

// Resume rebuilds a wizard around a previously saved state.
func Resume(s State, sub Submitter, hooks Hooks, opts ...Option) *Wizard {
	w := &Wizard{submitter: sub, hooks: hooks, now: time.Now}
	for _, o := range opts {
		o(w)
	}
	if s.Step < StepBookDetails || s.Step > StepSuccess {
		s.Step = StepBookDetails
	}
	if s.Book.Images == nil {
		s.Book.Images = []string{}
	}
	w.state = s
	return w
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	s := w.state
	s.Book.Images = append([]string{}, w.state.Book.Images...)
	if w.state.Location.Coordinates != nil {
		c := *w.state.Location.Coordinates
		s.Location.Coordinates = &c
	}
	if w.state.Receipt != nil {
		r := *w.state.Receipt
		s.Receipt = &r
	}
	return s
}

func (w *Wizard) Step() Step   { return w.state.Step }
func (w *Wizard) Closed() bool { return w.closed }

// Now is the wizard's clock; step validation uses it for year bounds.
func (w *Wizard) Now() time.Time { return w.now() }

// Start puts the wizard at step 1 with empty drafts.
func (w *Wizard) Start() {
	w.closed = false
	w.state = initialState(w.state.Kind)
	w.touch()
}

// Advance merges a validated partial into its draft and moves forward.
func (w *Wizard) Advance(p Partial) error {
	if err := w.open(); err != nil {
		return err
	}
	if p == nil {
		return ErrInvalidTransition
	}
	if w.state.Step == StepSuccess {
		return ErrTerminal
	}
	if p.step() != w.state.Step {
		return fmt.Errorf("%w: got %s partial at %s", ErrWrongStep, p.step(), w.state.Step)
	}
	p.apply(&w.state)
	if w.state.Step < StepReview {
		w.state.Step++
	}
	w.touch()
	return nil
}

// Retreat steps back one screen, keeping every draft.
func (w *Wizard) Retreat() error {
	if err := w.open(); err != nil {
		return err
	}
	if w.state.Step == StepSuccess {
		return ErrTerminal
	}
	if w.state.Step > StepBookDetails {
		w.state.Step--
		w.touch()
	}
	return nil
}

// JumpTo is Review's "Edit" action. Only BookDetails and Location are valid
// targets, and drafts are left as they are.
func (w *Wizard) JumpTo(target Step) error {
	if err := w.open(); err != nil {
		return err
	}
	if w.state.Step != StepReview {
		return fmt.Errorf("%w: edit is only available from review", ErrWrongStep)
	}
	if target != StepBookDetails && target != StepLocation {
		return fmt.Errorf("%w: cannot edit step %d", ErrInvalidTransition, target)
	}
	w.state.Step = target
	w.touch()
	return nil
}

// Submit hands both drafts to the submitter. It is only valid at Review.
// On success the wizard moves to Success and OnSubmitted fires; on failure
// it stays at Review with drafts intact.
func (w *Wizard) Submit(ctx context.Context) (Receipt, error) {
	if err := w.open(); err != nil {
		return Receipt{}, err
	}
	if w.state.Step == StepSuccess {
		return Receipt{}, ErrTerminal
	}
	if w.state.Step != StepReview {
		return Receipt{}, fmt.Errorf("%w: submit is only available from review", ErrWrongStep)
	}
	sub := w.submitter
	if sub == nil {
		sub = NopSubmitter{}
	}
	rec, err := sub.Submit(ctx, Submission{Kind: w.state.Kind, Book: w.state.Book, Location: w.state.Location})
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = w.now().UTC()
	}
	w.state.Receipt = &rec
	w.state.Step = StepSuccess
	w.touch()
	if w.hooks.OnSubmitted != nil {
		w.hooks.OnSubmitted(rec)
	}
	return rec, nil
}

// Reset restores the initial empty state ("list another book").
func (w *Wizard) Reset() error {
	if err := w.open(); err != nil {
		return err
	}
	w.Start()
	return nil
}

// Cancel discards the wizard entirely and tells the host.
func (w *Wizard) Cancel() {
	if w.closed {
		return
	}
	w.closed = true
	w.state = initialState(w.state.Kind)
	if w.hooks.OnClose != nil {
		w.hooks.OnClose()
	}
}

func (w *Wizard) open() error {
	if w.closed {
		return ErrClosed
	}
	return nil
}

func (w *Wizard) touch() { w.state.UpdatedAt = w.now().UTC() }
