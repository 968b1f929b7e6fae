package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/chairside/chairside/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the treatment menu.
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

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	salonID, err := uuid.Parse(chi.URLParam(r, "salonID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid salon id")
		return
	}
	menu, err := h.service.Menu(r.Context(), salonID)
	if err != nil {
		h.respondError(w, "menu", err)
		return
	}
	httpx.JSON(w, http.StatusOK, menu)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	salonID, err := uuid.Parse(chi.URLParam(r, "salonID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid salon id")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.service.List(r.Context(), salonID, page, pageSize)
	if err != nil {
		h.respondError(w, "list treatments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	salonID, err := uuid.Parse(chi.URLParam(r, "salonID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid salon id")
		return
	}
	var input TreatmentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	treatment, err := h.service.Create(r.Context(), salonID, input)
	if err != nil {
		h.respondError(w, "create treatment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, treatment)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	salonID, err := uuid.Parse(chi.URLParam(r, "salonID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid salon id")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid treatment id")
		return
	}
	var input TreatmentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	treatment, err := h.service.Update(r.Context(), salonID, id, input)
	if err != nil {
		h.respondError(w, "update treatment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, treatment)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	salonID, err := uuid.Parse(chi.URLParam(r, "salonID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid salon id")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid treatment id")
		return
	}
	if err := h.service.Deactivate(r.Context(), salonID, id); err != nil {
		h.respondError(w, "deactivate treatment", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Debug(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
