package handler

import (
	stdErrors "errors"

	"github.com/labstack/echo/v4"

	apperrors "github.com/echoscribe-team/echoscribe/errors"
	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
)

// defaultOwner is used when no owner header is present: single-user local
// deployments don't send one.
const defaultOwner = "local"

// OwnerID extracts the request's owner scope from the X-Owner-ID header.
func OwnerID(c echo.Context) string {
	if owner := c.Request().Header.Get("X-Owner-ID"); owner != "" {
		return owner
	}
	return defaultOwner
}

// RespondError maps a domain error to its AppError shape and writes it.
func RespondError(c echo.Context, err error, resourceID string) error {
	appErr := toAppError(err, resourceID)
	return c.JSON(appErr.HTTPCode, appErr)
}

func toAppError(err error, resourceID string) apperrors.AppError {
	var appErr apperrors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stdErrors.Is(err, entities.ErrSessionNotFound):
		return apperrors.ErrSessionNotFound(resourceID)
	case stdErrors.Is(err, entities.ErrDictationNotFound):
		return apperrors.ErrDictationNotFound(resourceID)
	case stdErrors.Is(err, entities.ErrInvalidStateTransition):
		return apperrors.ErrSessionInvalidState(resourceID, "")
	case stdErrors.Is(err, entities.ErrDictationInvalidState):
		return apperrors.ErrDictationInvalidState(resourceID, "")
	case stdErrors.Is(err, entities.ErrMissingAudio):
		return apperrors.ErrMissingAudio()
	case stdErrors.Is(err, entities.ErrEmptyTranscript):
		return apperrors.ErrMissingTranscript()
	case stdErrors.Is(err, entities.ErrActionItemOutOfRange):
		return apperrors.ErrInvalidArgument("action item index out of range")
	case stdErrors.Is(err, entities.ErrTranscriptionFailed):
		return apperrors.ErrTranscriptionFailed(err)
	case stdErrors.Is(err, entities.ErrAnalysisFailed):
		return apperrors.ErrAnalysisFailed(err)
	default:
		return apperrors.ErrInternal(err)
	}
}
