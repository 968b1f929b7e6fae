package appointments

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/chairside/chairside/internal/platform/httpx"
)

// Handler wires HTTP endpoints for appointment flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		h.respondError(w, "list appointments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	appt, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get appointment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, appt)
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var input BookingInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	appt, err := h.service.Book(r.Context(), input)
	if err != nil {
		h.respondError(w, "book appointment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, appt)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Confirm)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	booking, err := h.service.Complete(r.Context(), id)
	if err != nil {
		h.respondError(w, "complete appointment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, booking)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	panels, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.respondError(w, "dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, panels)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID) (*Appointment, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	appt, err := op(r.Context(), id)
	if err != nil {
		h.respondError(w, "transition appointment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, appt)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Debug(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
