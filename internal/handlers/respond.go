// Package handlers exposes the view surface over HTTP: one endpoint per view
// action plus a snapshot of the mounted view. Handlers stay thin; the app
// package owns all state.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Mikelesnr/tsviyo-frontend/internal/api"
	"github.com/Mikelesnr/tsviyo-frontend/internal/app"
	"github.com/Mikelesnr/tsviyo-frontend/internal/ride"
	"github.com/Mikelesnr/tsviyo-frontend/internal/session"
)

// fail maps an action error to a response. The error taxonomy decides the
// status; the message is always user-presentable.
func fail(c *gin.Context, err error) {
	var apiErr *api.Error
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		switch {
		case apiErr.Kind == api.KindNetwork:
			status = http.StatusBadGateway
		case status == 0:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": apiErr.Message, "kind": string(apiErr.Kind)})
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": validationFields(validationErrs)})
	case errors.Is(err, app.ErrActionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "that action is already in progress"})
	case errors.Is(err, app.ErrConfirmRequired):
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "confirmation required"})
	case errors.Is(err, app.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "not available for this role"})
	case errors.Is(err, session.ErrNoSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
	case errors.Is(err, ride.ErrNoRide):
		c.JSON(http.StatusNotFound, gin.H{"error": "no active ride"})
	case errors.Is(err, ride.ErrReasonRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "a cancellation reason is required once a driver accepted"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// validationFields renders validator errors as field -> rule pairs.
func validationFields(errs validator.ValidationErrors) gin.H {
	fields := gin.H{}
	for _, fe := range errs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// bind decodes the JSON body, rejecting malformed payloads up front.
func bind(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}
