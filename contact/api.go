package contact

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	"contact-gateway/middleware/ratelimit"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// API liga as rotas do formulário ao Registry.
type API struct {
	Registry *application.Registry
	// KeyFn é usado quando nenhum middleware guardou a chave no contexto.
	KeyFn  ratelimit.KeyFunc
	Logger *zap.Logger
}

type stateView struct {
	Draft          domain.FormDraft        `json:"draft"`
	Status         domain.SubmissionStatus `json:"status"`
	Errors         map[string]string       `json:"errors,omitempty"`
	RemainingChars int                     `json:"remaining_chars"`
	WaitMS         int64                   `json:"wait_ms"`
	WaitMessage    string                  `json:"wait_message,omitempty"`
	Unsaved        bool                    `json:"unsaved"`
	Submissions    int                     `json:"submissions"`
}

type patchRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type patchResponse struct {
	Field string           `json:"field"`
	Value string           `json:"value"`
	Error string           `json:"error,omitempty"`
	Draft domain.FormDraft `json:"draft"`
}

type submitResponse struct {
	Status     domain.SubmissionStatus `json:"status"`
	Submission *domain.Submission      `json:"submission,omitempty"`
}

type throttleView struct {
	WaitMS  int64  `json:"wait_ms"`
	Message string `json:"message,omitempty"`
}

// Routes devolve o sub-router para montar em /contact.
func (a *API) Routes() chi.Router {
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if a.KeyFn == nil {
		a.KeyFn = ratelimit.DefaultKeyFunc("", false)
	}

	r := chi.NewRouter()
	r.Get("/", a.getState)
	r.Patch("/draft", a.patchDraft)
	r.Delete("/draft", a.resetDraft)
	r.Post("/submit", a.submit)
	r.Get("/throttle", a.getThrottle)
	r.Get("/history", a.getHistory)
	return r
}

func (a *API) store(r *http.Request) *application.FormStore {
	key, ok := ratelimit.ClientKey(r.Context())
	if !ok {
		key = a.KeyFn(r)
	}
	return a.Registry.Get(r.Context(), domain.Key(key))
}

func (a *API) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.view(r.Context(), a.store(r)))
}

func (a *API) patchDraft(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	field, err := domain.ParseField(req.Field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_field", err.Error())
		return
	}

	value := req.Value
	if field == domain.FieldPhone {
		value = domain.FormatPhone(value)
	}

	s := a.store(r)
	if err := s.UpdateField(r.Context(), field, value); err != nil {
		writeError(w, http.StatusBadRequest, "unknown_field", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, patchResponse{
		Field: string(field),
		Value: value,
		Error: domain.ValidateField(field, value),
		Draft: s.Draft(),
	})
}

func (a *API) resetDraft(w http.ResponseWriter, r *http.Request) {
	s := a.store(r)
	s.Reset(r.Context())
	writeJSON(w, http.StatusOK, a.view(r.Context(), s))
}

func (a *API) submit(w http.ResponseWriter, r *http.Request) {
	s := a.store(r)
	draft := s.Draft()

	if errs := domain.ValidateDraft(draft); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errorDetail{
			Code:    "validation_failed",
			Message: "one or more fields are invalid",
			Fields:  fieldErrors(errs),
		}})
		return
	}

	st, err := s.Submit(r.Context(), draft.Sanitize())

	var (
		throttleErr  domain.ThrottleError
		transportErr domain.TransportError
	)
	switch {
	case err == nil:
		resp := submitResponse{Status: st}
		if hist := s.History(); len(hist) > 0 {
			last := hist[len(hist)-1]
			resp.Submission = &last
		}
		writeJSON(w, http.StatusOK, resp)

	case errors.Is(err, domain.ErrSubmissionInProgress):
		writeError(w, http.StatusConflict, "in_progress", err.Error())

	case errors.As(err, &throttleErr):
		secs := int64(math.Ceil(throttleErr.Wait.Seconds()))
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
		writeJSON(w, http.StatusTooManyRequests, submitResponse{Status: st})

	case errors.As(err, &transportErr):
		writeJSON(w, http.StatusBadGateway, submitResponse{Status: st})

	default:
		a.Logger.Error("unexpected submit error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, submitResponse{Status: st})
	}
}

func (a *API) getThrottle(w http.ResponseWriter, r *http.Request) {
	wait := a.store(r).Gate().TimeUntilNextSubmission(r.Context())
	writeJSON(w, http.StatusOK, throttleView{
		WaitMS:  wait.Milliseconds(),
		Message: domain.FormatWait(wait),
	})
}

func (a *API) getHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store(r).History())
}

func (a *API) view(ctx context.Context, s *application.FormStore) stateView {
	snap := s.Snapshot()
	wait := s.Gate().TimeUntilNextSubmission(ctx)

	// só valida campos já preenchidos, como o feedback inline
	errs := map[string]string{}
	for _, f := range domain.Fields {
		v := snap.Draft.Get(f)
		if v == "" {
			continue
		}
		if msg := domain.ValidateField(f, v); msg != "" {
			errs[string(f)] = msg
		}
	}
	if len(errs) == 0 {
		errs = nil
	}

	return stateView{
		Draft:          snap.Draft,
		Status:         snap.Status,
		Errors:         errs,
		RemainingChars: domain.RemainingChars(snap.Draft.Message),
		WaitMS:         wait.Milliseconds(),
		WaitMessage:    domain.FormatWait(wait),
		Unsaved:        !snap.Draft.IsEmpty(),
		Submissions:    snap.Submissions,
	}
}

func fieldErrors(errs domain.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for f, msg := range errs {
		out[string(f)] = msg
	}
	return out
}
