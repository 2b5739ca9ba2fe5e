package handler

import (
	"context"
	"net/http"

	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/prepestimate"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EstimateServicer returns the preparation estimate shown to customers.
// Satisfied by *service.EstimateService.
type EstimateServicer interface {
	Estimate(ctx context.Context, establishmentID uuid.UUID) (prepestimate.Estimate, error)
}

// EstimateHandler serves GET /establishments/{eid}/preparation-time.
type EstimateHandler struct {
	svc EstimateServicer
	log *logrus.Entry
}

func NewEstimateHandler(svc EstimateServicer, log *logrus.Entry) *EstimateHandler {
	return &EstimateHandler{svc: svc, log: log.WithField("component", "estimate_handler")}
}

func (h *EstimateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	eid := middleware.EstablishmentFromContext(r.Context())

	est, err := h.svc.Estimate(r.Context(), eid)
	if err != nil {
		writeServiceError(w, h.log, "preparation estimate", err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}
