package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"savingscircle/internal/delivery/http/helpers"
	"savingscircle/internal/delivery/http/middleware"
	"savingscircle/internal/domain"
)

// PaymentsIncompleteDetails is the error.details object of a payments_incomplete response.
// swagger:model PaymentsIncompleteDetails
type PaymentsIncompleteDetails struct {
	Period      int      `json:"period"`
	Outstanding []string `json:"outstanding"`
}

// writeServiceError maps a service error to its HTTP status and error code.
// Unknown errors are logged and reported as 500.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var incomplete *domain.PaymentsIncompleteError
	switch {
	case errors.As(err, &incomplete):
		helpers.WriteJSONErrorDetails(w, http.StatusConflict, helpers.ErrCodePaymentsIncomplete, err.Error(),
			PaymentsIncompleteDetails{Period: incomplete.Period, Outstanding: incomplete.Outstanding})
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied), errors.Is(err, domain.ErrNotMember):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrMembershipCountMismatch):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeMembershipCountMismatch, err.Error())
	case errors.Is(err, domain.ErrContributionOutOfOrder):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeContributionOutOfOrder, err.Error())
	case errors.Is(err, domain.ErrDrawAlreadyPerformed),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrDeliveryExists):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}

// requireActor returns the authenticated actor or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return actor, ok
}

// requireViewer writes a 403 unless actor is an admin or a member of the snapshot's group.
func requireViewer(logger *slog.Logger, w http.ResponseWriter, r *http.Request, snap *domain.GroupSnapshot, actor domain.Actor) bool {
	if actor.IsAdmin() || snap.HasMember(actor.UserID) {
		return true
	}
	writeServiceError(logger, w, r, domain.ErrNotMember)
	return false
}

// pathGroupID returns the groupID path value or writes a 400.
func pathGroupID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("groupID")
	if id == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return "", false
	}
	return id, true
}
