// Package handler exposes the order core over HTTP. Handlers depend on narrow
// service interfaces and translate service errors into status codes.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/comanda-pos/api/internal/availability"
	"github.com/comanda-pos/api/internal/closeout"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/statusflow"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// On failure it writes the 400 response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
		switch fe.Tag() {
		case "required", "required_if":
			msgs[i] = fmt.Sprintf("%s is required", field)
		case "oneof":
			msgs[i] = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		case "gt":
			msgs[i] = fmt.Sprintf("%s must be > %s", field, fe.Param())
		case "gte", "min":
			msgs[i] = fmt.Sprintf("%s must be >= %s", field, fe.Param())
		default:
			msgs[i] = fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
		}
	}
	return strings.Join(msgs, "; ")
}

func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func isValidationError(err error) bool {
	for _, target := range []error{
		service.ErrEmptyItems,
		service.ErrInvalidOrderType,
		service.ErrInvalidQuantity,
		service.ErrInvalidPrice,
		service.ErrTableRequired,
		service.ErrInvalidDate,
		statusflow.ErrUnknownOrderType,
		closeout.ErrNegativeAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrEstablishmentNotFound) ||
		errors.Is(err, service.ErrOrderNotFound) ||
		errors.Is(err, service.ErrTableNotFound)
}

func isConflict(err error) bool {
	for _, target := range []error{
		service.ErrStatusConflict,
		service.ErrTransitionInFlight,
		service.ErrTabBusy,
		service.ErrTableClosed,
		service.ErrOrderAlreadyPaid,
		service.ErrOrderCancelled,
		service.ErrOrderOnTab,
		statusflow.ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUnprocessable(err error) bool {
	return errors.Is(err, availability.ErrStoreClosed) ||
		errors.Is(err, availability.ErrNoAvailableSlots) ||
		errors.Is(err, closeout.ErrPaymentMethodDisabled)
}

// writeServiceError maps a service error to its status code. Unknown errors
// are logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, log *logrus.Entry, op string, err error) {
	var mismatch *closeout.MismatchError
	switch {
	case errors.As(err, &mismatch):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":     err.Error(),
			"remaining": mismatch.Remaining.StringFixed(2),
			"sign":      string(mismatch.Sign),
		})
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case isNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case isConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case isUnprocessable(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.WithError(err).Error(op)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return d.StringFixed(2)
}

func optionalNumericString(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := numericToString(n)
	return &s
}

func optionalString(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
