// Package wizard mounts the listing wizard over HTTP. Each request loads the
// caller's saved state, applies one transition and saves it back.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/api/apperr"
	"github.com/aashish4533/bloombook/internal/api/httpx"
	"github.com/aashish4533/bloombook/internal/api/middlewares"
	"github.com/aashish4533/bloombook/internal/metrics"
	"github.com/aashish4533/bloombook/internal/store/drafts"
	"github.com/aashish4533/bloombook/internal/validate"
	"github.com/aashish4533/bloombook/internal/wizard"
)

type Handler struct {
	Drafts    drafts.Store
	Submitter wizard.Submitter
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	Options   []wizard.Option
}

func New(store drafts.Store, sub wizard.Submitter, m *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Drafts: store, Submitter: sub, Metrics: m, Log: log}
}

// session is one request's view of a user's wizard.
type session struct {
	userID string
	kind   wizard.Kind
	wz     *wizard.Wizard
	closed bool
}

func (h *Handler) hooks(ctx context.Context, s *session) wizard.Hooks {
	return wizard.Hooks{
		OnClose: func() {
			s.closed = true
			if err := h.Drafts.Delete(ctx, s.userID, s.kind); err != nil {
				h.Log.Warn("wizard: delete draft on close", zap.String("user_id", s.userID), zap.Error(err))
			}
		},
		OnSubmitted: func(rec wizard.Receipt) {
			h.Metrics.IncSubmission(string(s.kind), "ok")
			h.Log.Info("wizard: listing submitted",
				zap.String("user_id", s.userID),
				zap.String("kind", string(s.kind)),
				zap.String("listing_id", rec.ListingID))
		},
	}
}

func (h *Handler) submitter(userID string) wizard.Submitter {
	base := h.Submitter
	if base == nil {
		base = wizard.NopSubmitter{}
	}
	return wizard.SubmitterFunc(func(ctx context.Context, s wizard.Submission) (wizard.Receipt, error) {
		s.OwnerID = userID
		return base.Submit(ctx, s)
	})
}

// open resolves the caller and kind. With fresh set it starts a new wizard,
// otherwise it resumes the saved one.
func (h *Handler) open(w http.ResponseWriter, r *http.Request, fresh bool) (*session, bool) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "")
		return nil, false
	}
	kind, ok := wizard.ParseKind(r.PathValue("kind"))
	if !ok {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "unknown wizard kind")
		return nil, false
	}
	s := &session{userID: userID, kind: kind}
	hooks := h.hooks(r.Context(), s)
	sub := h.submitter(userID)

	if fresh {
		s.wz = wizard.New(kind, sub, hooks, h.Options...)
		return s, true
	}
	st, err := h.Drafts.Load(r.Context(), userID, kind)
	if errors.Is(err, drafts.ErrNotFound) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "no wizard in progress")
		return nil, false
	}
	if err != nil {
		h.Log.Error("wizard: load draft", zap.String("user_id", userID), zap.Error(err))
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", "draft store unavailable")
		return nil, false
	}
	st.Kind = kind
	s.wz = wizard.Resume(st, sub, hooks, h.Options...)
	return s, true
}

// save persists the state and writes the current view.
func (h *Handler) save(w http.ResponseWriter, r *http.Request, s *session, status int, action string) {
	st := s.wz.State()
	if err := h.Drafts.Save(r.Context(), s.userID, st); err != nil {
		h.Log.Error("wizard: save draft", zap.String("user_id", s.userID), zap.Error(err))
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", "draft store unavailable")
		return
	}
	h.Metrics.IncTransition(string(s.kind), action)
	httpx.WriteJSON(w, status, httpx.Envelope{Status: "success", Data: wizard.Render(st)})
}

// Start begins (or restarts) a wizard at Book Details with empty drafts.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r, true)
	if !ok {
		return
	}
	h.save(w, r, s, http.StatusCreated, "start")
}

// Get renders the saved wizard's current step.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r, false)
	if !ok {
		return
	}
	httpx.OK(w, wizard.Render(s.wz.State()))
}

// Next commits the current step's form and advances. Field errors come back
// as 422 with the re-rendered form; the saved state is left as it was.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r, false)
	if !ok {
		return
	}

	var (
		p    wizard.Partial
		errs validate.FieldErrors
		view wizard.View
	)
	switch step := s.wz.Step(); step {
	case wizard.StepBookDetails:
		var f wizard.BookDetailsForm
		if !decode(w, r, &f) {
			return
		}
		p, errs = f.Commit(s.wz.Now())
		if errs.Empty() {
			if _, err := validate.ImageKeys(f.Images, ownerPrefix(s.userID), wizard.MaxImages); err != nil {
				errs = validate.FieldErrors{}
				errs.Add(err)
				p = nil
			}
		}
		view = wizard.RenderBookDetailsForm(s.kind, f, errs)
	case wizard.StepLocation:
		var f wizard.LocationForm
		if !decode(w, r, &f) {
			return
		}
		p, errs = f.Commit()
		view = wizard.RenderLocationForm(s.kind, f, errs)
	default:
		h.writeErr(w, r, s, wizard.ErrWrongStep)
		return
	}

	if !errs.Empty() {
		for _, field := range errs.Fields() {
			h.Metrics.IncValidationFailure(s.wz.Step().String(), field)
		}
		pr := apperr.Validation(errs)
		pr.Data = view
		apperr.Write(w, r, pr)
		return
	}
	if err := s.wz.Advance(p); err != nil {
		h.writeErr(w, r, s, err)
		return
	}
	h.save(w, r, s, http.StatusOK, "advance")
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r, false)
	if !ok {
		return
	}
	if err := s.wz.Retreat(); err != nil {
		h.writeErr(w, r, s, err)
		return
	}
	h.save(w, r, s, http.StatusOK, "retreat")
}

// Edit is Review's jump back to Book Details or Location.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r, false)
	if !ok {
		return
	}
	step, ok := parseStep(r.PathValue("step"))
	if !ok {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "unknown step")
		return
	}
	if err := s.wz.JumpTo(step); err != nil {
		h.writeErr(w, r, s, err)
		return
	}
	h.save(w, r, s, http.StatusOK, "edit")
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r, false)
	if !ok {
		return
	}
	if _, err := s.wz.Submit(r.Context()); err != nil {
		h.writeErr(w, r, s, err)
		return
	}
	h.save(w, r, s, http.StatusOK, "submit")
}

// Reset is "list another book": back to an empty Book Details.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r, false)
	if !ok {
		return
	}
	if err := s.wz.Reset(); err != nil {
		h.writeErr(w, r, s, err)
		return
	}
	h.save(w, r, s, http.StatusOK, "reset")
}

// Cancel closes the wizard; the OnClose hook drops the saved draft.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r, false)
	if !ok {
		return
	}
	s.wz.Cancel()
	h.Metrics.IncTransition(string(s.kind), "cancel")
	httpx.OK(w, map[string]any{"closed": s.closed})
}

// OnLogout drops every draft the user has; wired as auth.Handler.OnLogout.
func (h *Handler) OnLogout(ctx context.Context, userID string) {
	if err := h.Drafts.DeleteAll(ctx, userID); err != nil {
		h.Log.Warn("wizard: delete drafts on logout", zap.String("user_id", userID), zap.Error(err))
	}
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, s *session, err error) {
	switch {
	case errors.Is(err, wizard.ErrSubmitFailed):
		h.Metrics.IncSubmission(string(s.kind), "error")
		h.Log.Error("wizard: submit failed", zap.String("user_id", s.userID), zap.Error(err))
		if p, ok := apperr.FromPG(err); ok {
			apperr.Write(w, r, p)
			return
		}
		apperr.Write(w, r, apperr.Problem{
			Status:    http.StatusBadGateway,
			Title:     "Submission failed",
			Detail:    "your listing was not saved; please try again",
			Retryable: true,
		})
	case errors.Is(err, wizard.ErrTerminal):
		apperr.WriteStatus(w, r, http.StatusConflict, "Conflict", "listing already submitted; reset to list another book")
	case errors.Is(err, wizard.ErrWrongStep), errors.Is(err, wizard.ErrInvalidTransition):
		apperr.WriteStatus(w, r, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, wizard.ErrClosed):
		apperr.WriteStatus(w, r, http.StatusGone, "Gone", "wizard closed")
	default:
		h.Log.Error("wizard: unexpected error", zap.Error(err))
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	return true
}

func parseStep(s string) (wizard.Step, bool) {
	switch s {
	case "1", wizard.StepBookDetails.String():
		return wizard.StepBookDetails, true
	case "2", wizard.StepLocation.String():
		return wizard.StepLocation, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		// other numbers reach JumpTo so the controller rejects them
		return wizard.Step(n), true
	}
	return 0, false
}

func ownerPrefix(userID string) string {
	return wizard.ImageKeyPrefix + userID + "/"
}
