package wizard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aashish4533/bloombook/internal/wizard"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func validBookForm() wizard.BookDetailsForm {
	return wizard.BookDetailsForm{
		ISBN:          "978-3-16-148410-0",
		Title:         "The Pragmatic Programmer",
		Author:        "Hunt & Thomas",
		Price:         "12.99",
		Condition:     "like new",
		Category:      "Technology",
		Description:   "Lightly used.",
		PublishedYear: "1999",
		Language:      "English",
		PageCount:     "352",
		Images:        []string{"listings/u1/cover.jpg"},
	}
}

func validLocationForm() wizard.LocationForm {
	return wizard.LocationForm{
		DeliveryMethod: "pickup",
		Address:        "12 Mall Road",
		City:           "Lahore",
		State:          "Punjab",
		ZipCode:        "54000",
	}
}

func newWizard(t *testing.T, sub wizard.Submitter, hooks wizard.Hooks) *wizard.Wizard {
	t.Helper()
	return wizard.New(wizard.KindSell, sub, hooks, wizard.WithClock(clock))
}

func advanceBook(t *testing.T, w *wizard.Wizard, f wizard.BookDetailsForm) {
	t.Helper()
	p, errs := f.Commit(w.Now())
	if !errs.Empty() {
		t.Fatalf("book form should be valid, got %v", errs)
	}
	if err := w.Advance(p); err != nil {
		t.Fatalf("advance book: %v", err)
	}
}

func advanceLocation(t *testing.T, w *wizard.Wizard, f wizard.LocationForm) {
	t.Helper()
	p, errs := f.Commit()
	if !errs.Empty() {
		t.Fatalf("location form should be valid, got %v", errs)
	}
	if err := w.Advance(p); err != nil {
		t.Fatalf("advance location: %v", err)
	}
}

func TestStartIsStepOneWithEmptyDrafts(t *testing.T) {
	w := newWizard(t, nil, wizard.Hooks{})
	s := w.State()
	if s.Step != wizard.StepBookDetails {
		t.Fatalf("want step 1, got %d", s.Step)
	}
	if s.Book.Title != "" || s.Location.City != "" || len(s.Book.Images) != 0 {
		t.Fatalf("drafts should be empty: %+v", s)
	}
	if s.Kind != wizard.KindSell {
		t.Fatalf("want kind sell, got %q", s.Kind)
	}
}

func TestEmptyTitleBlocksAdvance(t *testing.T) {
	w := newWizard(t, nil, wizard.Hooks{})
	f := validBookForm()
	f.Title = "   "

	p, errs := f.Commit(w.Now())
	if p != nil {
		t.Fatal("commit with empty title must not produce a partial")
	}
	if errs["title"] != "Title is required" {
		t.Fatalf("want title error, got %v", errs)
	}
	if w.Step() != wizard.StepBookDetails {
		t.Fatalf("step must remain 1, got %d", w.Step())
	}
	if err := w.Advance(p); !errors.Is(err, wizard.ErrInvalidTransition) {
		t.Fatalf("advance(nil) should be rejected, got %v", err)
	}
}

func TestRetreatKeepsDrafts(t *testing.T) {
	w := newWizard(t, nil, wizard.Hooks{})
	advanceBook(t, w, validBookForm())
	if w.Step() != wizard.StepLocation {
		t.Fatalf("want step 2, got %d", w.Step())
	}

	if err := w.Retreat(); err != nil {
		t.Fatal(err)
	}
	s := w.State()
	if s.Step != wizard.StepBookDetails {
		t.Fatalf("want step 1, got %d", s.Step)
	}
	if s.Book.ISBN != "9783161484100" || s.Book.Title != "The Pragmatic Programmer" ||
		s.Book.Price != 12.99 || s.Book.Condition != "Like New" || s.Book.PageCount != 352 {
		t.Fatalf("book draft lost after retreat: %+v", s.Book)
	}

	// floored at 1
	if err := w.Retreat(); err != nil {
		t.Fatal(err)
	}
	if w.Step() != wizard.StepBookDetails {
		t.Fatalf("retreat must floor at 1, got %d", w.Step())
	}
}

func TestAdvanceRejectsPartialForOtherStep(t *testing.T) {
	w := newWizard(t, nil, wizard.Hooks{})
	p, _ := validLocationForm().Commit()
	if err := w.Advance(p); !errors.Is(err, wizard.ErrWrongStep) {
		t.Fatalf("want ErrWrongStep, got %v", err)
	}
	if w.Step() != wizard.StepBookDetails {
		t.Fatalf("step must remain 1, got %d", w.Step())
	}
}

func TestEditFromReviewKeepsCommittedBook(t *testing.T) {
	w := newWizard(t, nil, wizard.Hooks{})
	advanceBook(t, w, validBookForm())
	advanceLocation(t, w, validLocationForm())
	if w.Step() != wizard.StepReview {
		t.Fatalf("want review, got %d", w.Step())
	}

	if err := w.JumpTo(wizard.StepLocation); err != nil {
		t.Fatal(err)
	}
	loc := validLocationForm()
	loc.City = "Islamabad"
	advanceLocation(t, w, loc)

	s := w.State()
	if s.Step != wizard.StepReview {
		t.Fatalf("want back at review, got %d", s.Step)
	}
	if s.Location.City != "Islamabad" {
		t.Fatalf("updated city not reflected: %q", s.Location.City)
	}
	if s.Book.Title != "The Pragmatic Programmer" {
		t.Fatalf("book draft changed: %+v", s.Book)
	}
	view := wizard.Render(s)
	if view.Review == nil || view.Review.Location.City != "Islamabad" {
		t.Fatalf("review render should show updated city: %+v", view.Review)
	}
}

func TestJumpToRules(t *testing.T) {
	w := newWizard(t, nil, wizard.Hooks{})
	if err := w.JumpTo(wizard.StepLocation); !errors.Is(err, wizard.ErrWrongStep) {
		t.Fatalf("jump outside review should fail, got %v", err)
	}
	advanceBook(t, w, validBookForm())
	advanceLocation(t, w, validLocationForm())
	if err := w.JumpTo(wizard.StepSuccess); !errors.Is(err, wizard.ErrInvalidTransition) {
		t.Fatalf("jump to success should fail, got %v", err)
	}
	if err := w.JumpTo(wizard.StepBookDetails); err != nil {
		t.Fatal(err)
	}
	if w.Step() != wizard.StepBookDetails {
		t.Fatalf("want step 1, got %d", w.Step())
	}
}

func TestSubmitOnlyFromReview(t *testing.T) {
	calls := 0
	sub := wizard.SubmitterFunc(func(ctx context.Context, s wizard.Submission) (wizard.Receipt, error) {
		calls++
		return wizard.Receipt{ListingID: "l-1"}, nil
	})
	w := newWizard(t, sub, wizard.Hooks{})
	if _, err := w.Submit(context.Background()); !errors.Is(err, wizard.ErrWrongStep) {
		t.Fatalf("submit at step 1 should fail, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("submitter must not be called, got %d calls", calls)
	}
}

func TestSubmitSuccessAndReset(t *testing.T) {
	var got wizard.Submission
	sub := wizard.SubmitterFunc(func(ctx context.Context, s wizard.Submission) (wizard.Receipt, error) {
		got = s
		return wizard.Receipt{ListingID: "l-42"}, nil
	})
	var notified *wizard.Receipt
	hooks := wizard.Hooks{OnSubmitted: func(r wizard.Receipt) { notified = &r }}

	w := newWizard(t, sub, hooks)
	advanceBook(t, w, validBookForm())
	advanceLocation(t, w, validLocationForm())

	rec, err := w.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rec.ListingID != "l-42" || !rec.SubmittedAt.Equal(fixedNow) {
		t.Fatalf("unexpected receipt: %+v", rec)
	}
	if notified == nil || notified.ListingID != "l-42" {
		t.Fatal("OnSubmitted not called with receipt")
	}
	if got.Book.Title != "The Pragmatic Programmer" || got.Location.City != "Lahore" || got.Kind != wizard.KindSell {
		t.Fatalf("submitter got wrong drafts: %+v", got)
	}
	if w.Step() != wizard.StepSuccess {
		t.Fatalf("want success, got %d", w.Step())
	}

	// terminal
	if err := w.Retreat(); !errors.Is(err, wizard.ErrTerminal) {
		t.Fatalf("retreat from success should fail, got %v", err)
	}
	if _, err := w.Submit(context.Background()); !errors.Is(err, wizard.ErrTerminal) {
		t.Fatalf("second submit should fail, got %v", err)
	}

	if err := w.Reset(); err != nil {
		t.Fatal(err)
	}
	s := w.State()
	if s.Step != wizard.StepBookDetails || s.Book.Title != "" || s.Location.City != "" || s.Receipt != nil {
		t.Fatalf("reset should restore empty state: %+v", s)
	}
}

func TestSubmitFailureStaysAtReview(t *testing.T) {
	boom := errors.New("db down")
	sub := wizard.SubmitterFunc(func(context.Context, wizard.Submission) (wizard.Receipt, error) {
		return wizard.Receipt{}, boom
	})
	called := false
	w := newWizard(t, sub, wizard.Hooks{OnSubmitted: func(wizard.Receipt) { called = true }})
	advanceBook(t, w, validBookForm())
	advanceLocation(t, w, validLocationForm())

	_, err := w.Submit(context.Background())
	if !errors.Is(err, wizard.ErrSubmitFailed) || !errors.Is(err, boom) {
		t.Fatalf("want wrapped submit error, got %v", err)
	}
	if called {
		t.Fatal("OnSubmitted must not fire on failure")
	}
	s := w.State()
	if s.Step != wizard.StepReview || s.Book.Title == "" {
		t.Fatalf("state should be untouched: %+v", s)
	}
}

func TestCancelNotifiesHostAndCloses(t *testing.T) {
	closed := 0
	w := newWizard(t, nil, wizard.Hooks{OnClose: func() { closed++ }})
	advanceBook(t, w, validBookForm())

	w.Cancel()
	w.Cancel()
	if closed != 1 {
		t.Fatalf("OnClose should fire once, fired %d", closed)
	}
	if !w.Closed() {
		t.Fatal("wizard should be closed")
	}
	if err := w.Retreat(); !errors.Is(err, wizard.ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
	if err := w.Reset(); !errors.Is(err, wizard.ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestResumeClampsUnknownStep(t *testing.T) {
	w := wizard.Resume(wizard.State{Kind: wizard.KindRent, Step: 9}, nil, wizard.Hooks{})
	if w.Step() != wizard.StepBookDetails {
		t.Fatalf("want step 1, got %d", w.Step())
	}
	if w.State().Book.Images == nil {
		t.Fatal("images should be non-nil after resume")
	}
}

func TestStateIsACopy(t *testing.T) {
	w := newWizard(t, nil, wizard.Hooks{})
	advanceBook(t, w, validBookForm())
	s := w.State()
	s.Book.Images[0] = "listings/other"
	if w.State().Book.Images[0] != "listings/u1/cover.jpg" {
		t.Fatal("State must not expose internal slices")
	}
}
