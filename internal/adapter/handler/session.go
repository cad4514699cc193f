package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"

	apperrors "github.com/echoscribe-team/echoscribe/errors"
	sessiondto "github.com/echoscribe-team/echoscribe/internal/adapter/dto/session"
	"github.com/echoscribe-team/echoscribe/internal/domain/entities"
	"github.com/echoscribe-team/echoscribe/internal/domain/repositories"
	"github.com/echoscribe-team/echoscribe/internal/usecase/pipeline"
)

// maxUploadBytes caps one audio capture upload (500 MB).
const maxUploadBytes = 500 << 20

// Session handles recording session HTTP requests
type Session struct {
	service *pipeline.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service *pipeline.Service) *Session {
	return &Session{service: service}
}

// CreateSession handles POST /sessions: a multipart upload with the audio
// capture plus title/source/duration fields. Processing runs in the
// background; the response is the created session in processing state.
func (h *Session) CreateSession(c echo.Context) error {
	var req sessiondto.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		appErr := apperrors.ErrInvalidPayload()
		return c.JSON(appErr.HTTPCode, appErr)
	}
	if err := c.Validate(&req); err != nil {
		appErr := apperrors.ErrInvalidArgument(err.Error())
		return c.JSON(appErr.HTTPCode, appErr)
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return RespondError(c, entities.ErrMissingAudio, "")
	}
	if fileHeader.Size > maxUploadBytes {
		appErr := apperrors.ErrInvalidArgument("audio capture exceeds upload limit")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return RespondError(c, err, "")
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		return RespondError(c, err, "")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	var metadata datatypes.JSON
	if req.Metadata != "" {
		if !json.Valid([]byte(req.Metadata)) {
			appErr := apperrors.ErrInvalidArgument("metadata must be valid JSON")
			return c.JSON(appErr.HTTPCode, appErr)
		}
		metadata = datatypes.JSON(req.Metadata)
	}

	session, err := h.service.Start(c.Request().Context(), pipeline.ProcessInput{
		OwnerID:         OwnerID(c),
		Title:           req.Title,
		Source:          entities.SessionSource(req.Source),
		Audio:           audioData,
		MIMEType:        mimeType,
		DurationSeconds: req.DurationSeconds,
		Metadata:        metadata,
	})
	if err != nil {
		return RespondError(c, err, "")
	}

	return c.JSON(http.StatusAccepted, sessiondto.FromEntity(session))
}

// CreateManualSession handles POST /sessions/manual: a typed-in transcript
// enters the pipeline at the analysis stage. Runs synchronously.
func (h *Session) CreateManualSession(c echo.Context) error {
	var req sessiondto.ManualSessionRequest
	if err := c.Bind(&req); err != nil {
		appErr := apperrors.ErrInvalidPayload()
		return c.JSON(appErr.HTTPCode, appErr)
	}
	if err := c.Validate(&req); err != nil {
		appErr := apperrors.ErrInvalidArgument(err.Error())
		return c.JSON(appErr.HTTPCode, appErr)
	}

	session, err := h.service.ProcessTranscript(
		c.Request().Context(),
		OwnerID(c),
		req.Title,
		entities.SessionSource(req.Source),
		req.Transcript,
		req.DurationSeconds,
	)
	if err != nil {
		return RespondError(c, err, "")
	}
	return c.JSON(http.StatusCreated, sessiondto.FromEntity(session))
}

// RetrySession handles POST /sessions/:id/retry: rerun an errored session
// from its stored capture.
func (h *Session) RetrySession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid session id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	session, err := h.service.Retry(c.Request().Context(), OwnerID(c), id)
	if err != nil {
		return RespondError(c, err, id.String())
	}
	return c.JSON(http.StatusAccepted, sessiondto.FromEntity(session))
}

// GetSession handles GET /sessions/:id
func (h *Session) GetSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid session id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	session, err := h.service.Get(c.Request().Context(), OwnerID(c), id)
	if err != nil {
		return RespondError(c, err, id.String())
	}
	return c.JSON(http.StatusOK, sessiondto.FromEntity(session))
}

// ListSessions handles GET /sessions
func (h *Session) ListSessions(c echo.Context) error {
	filters := repositories.SessionFilters{Limit: 50}

	if status := c.QueryParam("status"); status != "" {
		s := entities.SessionStatus(status)
		filters.Status = &s
	}
	if source := c.QueryParam("source"); source != "" {
		s := entities.SessionSource(source)
		filters.Source = &s
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil && limit > 0 && limit <= 200 {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.QueryParam("offset")); err == nil && offset > 0 {
		filters.Offset = offset
	}

	sessions, total, err := h.service.List(c.Request().Context(), OwnerID(c), filters)
	if err != nil {
		return RespondError(c, err, "")
	}

	resp := sessiondto.ListResponse{
		Sessions: make([]sessiondto.SessionResponse, 0, len(sessions)),
		Total:    total,
	}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, sessiondto.FromEntity(s))
	}
	return c.JSON(http.StatusOK, resp)
}

// RenameSession handles PATCH /sessions/:id
func (h *Session) RenameSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid session id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	var req sessiondto.RenameRequest
	if err := c.Bind(&req); err != nil {
		appErr := apperrors.ErrInvalidPayload()
		return c.JSON(appErr.HTTPCode, appErr)
	}
	if err := c.Validate(&req); err != nil {
		appErr := apperrors.ErrInvalidArgument(err.Error())
		return c.JSON(appErr.HTTPCode, appErr)
	}

	session, err := h.service.Rename(c.Request().Context(), OwnerID(c), id, req.Title)
	if err != nil {
		return RespondError(c, err, id.String())
	}
	return c.JSON(http.StatusOK, sessiondto.FromEntity(session))
}

// DeleteSession handles DELETE /sessions/:id
func (h *Session) DeleteSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid session id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	if err := h.service.Delete(c.Request().Context(), OwnerID(c), id); err != nil {
		return RespondError(c, err, id.String())
	}
	return c.NoContent(http.StatusNoContent)
}

// SetActionItem handles PUT /sessions/:id/action-items/:index
func (h *Session) SetActionItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid session id")
		return c.JSON(appErr.HTTPCode, appErr)
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		appErr := apperrors.ErrInvalidArgument("invalid action item index")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	var req sessiondto.ActionItemRequest
	if err := c.Bind(&req); err != nil {
		appErr := apperrors.ErrInvalidPayload()
		return c.JSON(appErr.HTTPCode, appErr)
	}
	if err := c.Validate(&req); err != nil {
		appErr := apperrors.ErrInvalidArgument(err.Error())
		return c.JSON(appErr.HTTPCode, appErr)
	}

	if err := h.service.SetActionItemDone(c.Request().Context(), OwnerID(c), id, index, *req.Done); err != nil {
		return RespondError(c, err, id.String())
	}
	return c.JSON(http.StatusOK, sessiondto.ActionItemStateResponse{ItemIndex: index, Done: *req.Done})
}

// ListActionItems handles GET /sessions/:id/action-items
func (h *Session) ListActionItems(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		appErr := apperrors.ErrInvalidArgument("invalid session id")
		return c.JSON(appErr.HTTPCode, appErr)
	}

	states, err := h.service.ActionItems(c.Request().Context(), OwnerID(c), id)
	if err != nil {
		return RespondError(c, err, id.String())
	}

	resp := make([]sessiondto.ActionItemStateResponse, 0, len(states))
	for _, s := range states {
		resp = append(resp, sessiondto.ActionItemStateResponse{ItemIndex: s.ItemIndex, Done: s.Done})
	}
	return c.JSON(http.StatusOK, resp)
}
