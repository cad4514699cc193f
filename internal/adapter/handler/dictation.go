package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/echoscribe-team/echoscribe/errors"
	sessiondto "github.com/echoscribe-team/echoscribe/internal/adapter/dto/session"
	"github.com/echoscribe-team/echoscribe/internal/usecase/dictation"
)

// Dictation handles live dictation HTTP requests
type Dictation struct {
	service *dictation.Service
}

// NewDictationHandler creates a new dictation handler
func NewDictationHandler(service *dictation.Service) *Dictation {
	return &Dictation{service: service}
}

// StartDictation handles POST /dictations
func (h *Dictation) StartDictation(c echo.Context) error {
	snap, err := h.service.Start(c.Request().Context(), OwnerID(c))
	if err != nil {
		// The session survives a connect failure in the error state so the
		// client can retry it; report it alongside the failure.
		appErr := apperrors.ErrProviderUnavailable("streaming transcription").
			WithDetail("dictation_id", snap.ID.String())
		return c.JSON(appErr.HTTPCode, appErr)
	}
	return c.JSON(http.StatusCreated, sessiondto.FromSnapshot(snap))
}

// GetDictation handles GET /dictations/:id: the live transcript view.
func (h *Dictation) GetDictation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid dictation id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	snap, err := h.service.Get(OwnerID(c), id)
	if err != nil {
		return RespondError(c, err, id.String())
	}
	return c.JSON(http.StatusOK, sessiondto.FromSnapshot(snap))
}

// PushFrame handles POST /dictations/:id/frames
func (h *Dictation) PushFrame(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid dictation id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	var req sessiondto.PushFrameRequest
	if err := c.Bind(&req); err != nil {
		appErr := apperrors.ErrInvalidPayload()
		return c.JSON(appErr.HTTPCode, appErr)
	}
	if err := c.Validate(&req); err != nil {
		appErr := apperrors.ErrInvalidArgument(err.Error())
		return c.JSON(appErr.HTTPCode, appErr)
	}

	frame, err := base64.StdEncoding.DecodeString(req.Frame)
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("frame must be base64-encoded PCM")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	if err := h.service.PushFrame(c.Request().Context(), OwnerID(c), id, frame, req.SampleRate, req.Channels); err != nil {
		return RespondError(c, err, id.String())
	}
	return c.NoContent(http.StatusAccepted)
}

// StopDictation handles POST /dictations/:id/stop: finalize and analyze.
func (h *Dictation) StopDictation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid dictation id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	var req sessiondto.StopDictationRequest
	if err := c.Bind(&req); err != nil {
		appErr := apperrors.ErrInvalidPayload()
		return c.JSON(appErr.HTTPCode, appErr)
	}

	session, err := h.service.Stop(c.Request().Context(), OwnerID(c), id, req.Title)
	if err != nil {
		return RespondError(c, err, id.String())
	}
	return c.JSON(http.StatusOK, sessiondto.FromEntity(session))
}

// CancelDictation handles POST /dictations/:id/cancel: discard everything.
func (h *Dictation) CancelDictation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid dictation id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	if err := h.service.Cancel(c.Request().Context(), OwnerID(c), id); err != nil {
		return RespondError(c, err, id.String())
	}
	return c.NoContent(http.StatusNoContent)
}

// RetryDictation handles POST /dictations/:id/retry: reconnect after a
// failed connect.
func (h *Dictation) RetryDictation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid dictation id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	snap, err := h.service.Retry(c.Request().Context(), OwnerID(c), id)
	if err != nil {
		return RespondError(c, err, id.String())
	}
	return c.JSON(http.StatusOK, sessiondto.FromSnapshot(snap))
}
