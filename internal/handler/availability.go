package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/comanda-pos/api/internal/availability"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AvailabilityServicer answers opening-hours questions.
// Satisfied by *service.AvailabilityService.
type AvailabilityServicer interface {
	Status(ctx context.Context, establishmentID uuid.UUID) (availability.Status, error)
	Slots(ctx context.Context, establishmentID uuid.UUID, date string) ([]string, error)
	Days(ctx context.Context, establishmentID uuid.UUID, count int) ([]availability.AvailableDay, error)
}

// AvailabilityHandler handles store availability endpoints.
type AvailabilityHandler struct {
	svc AvailabilityServicer
	log *logrus.Entry
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(svc AvailabilityServicer, log *logrus.Entry) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, log: log.WithField("component", "availability_handler")}
}

// RegisterRoutes mounts at /establishments/{eid}/availability.
func (h *AvailabilityHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Status)
	r.Get("/slots", h.Slots)
	r.Get("/days", h.Days)
}

// Status handles GET /establishments/{eid}/availability.
func (h *AvailabilityHandler) Status(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())

	status, err := h.svc.Status(r.Context(), eid)
	if err != nil {
		writeServiceError(w, h.log, "availability status", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Slots handles GET /establishments/{eid}/availability/slots?date=YYYY-MM-DD.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	slots, err := h.svc.Slots(r.Context(), eid, date)
	if err != nil {
		writeServiceError(w, h.log, "availability slots", err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"date": date, "slots": slots})
}

// Days handles GET /establishments/{eid}/availability/days?count=N.
func (h *AvailabilityHandler) Days(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())

	count := 7
	if s := r.URL.Query().Get("count"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = v
	}
	if count > availability.DayHorizon {
		count = availability.DayHorizon
	}

	days, err := h.svc.Days(r.Context(), eid, count)
	if err != nil {
		writeServiceError(w, h.log, "availability days", err)
		return
	}
	if days == nil {
		days = []availability.AvailableDay{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}
