package controllers

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/boozebuddy/backend/common/errors"
	"github.com/boozebuddy/backend/common/logger"
	"github.com/boozebuddy/backend/common/middleware"
	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/repository"
	"github.com/boozebuddy/backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError maps the service error taxonomy onto HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		apperrors.Abort(c, apperrors.ErrBadRequest.WithMessage(ve.Error()).Wrap(err))
	case errors.Is(err, services.ErrValidation):
		apperrors.Abort(c, apperrors.ErrBadRequest.WithMessage(err.Error()).Wrap(err))
	case errors.Is(err, services.ErrNotFound):
		apperrors.Abort(c, apperrors.ErrNotFound.WithMessage(err.Error()).Wrap(err))
	case errors.Is(err, services.ErrNotAssigned), errors.Is(err, services.ErrAlreadyAssigned):
		apperrors.Abort(c, apperrors.ErrConflict.WithMessage(err.Error()).Wrap(err))
	case errors.Is(err, services.ErrStorageFailure):
		logger.FromContext(c).Error("Storage failure", zap.Error(err))
		apperrors.Abort(c, apperrors.ErrServiceUnavailable.Wrap(err))
	default:
		logger.FromContext(c).Error("Service error", zap.Error(err))
		apperrors.Abort(c, err)
	}
}

func badRequest(c *gin.Context, err error) {
	apperrors.Abort(c, apperrors.ErrBadRequest.WithMessage(err.Error()).Wrap(err))
}

// currentUser loads the authenticated caller. It writes the error response
// itself and returns nil when the caller cannot be resolved.
func currentUser(c *gin.Context, ctx context.Context, users UserLookup) *models.User {
	id, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Abort(c, apperrors.ErrUnauthorized.Wrap(err))
		return nil
	}
	user, err := users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		apperrors.Abort(c, apperrors.ErrUnauthorized.WithMessage("unknown user").Wrap(err))
		return nil
	}
	if err != nil {
		logger.FromContext(c).Error("Failed to load current user", zap.Error(err))
		apperrors.Abort(c, apperrors.ErrServiceUnavailable.Wrap(err))
		return nil
	}
	return user
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), DefaultContextTimeout)
}

func ok(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}
