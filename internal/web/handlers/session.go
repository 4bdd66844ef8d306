package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-overlay/internal/acquire"
	"github.com/kozaktomas/face-overlay/internal/assets"
	"github.com/kozaktomas/face-overlay/internal/constants"
	"github.com/kozaktomas/face-overlay/internal/notice"
	"github.com/kozaktomas/face-overlay/internal/raster"
	"github.com/kozaktomas/face-overlay/internal/session"
	"github.com/kozaktomas/face-overlay/internal/web/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// SessionHandler exposes the photo session over HTTP.
type SessionHandler struct {
	session *session.Session
	camera  *acquire.Camera
	notices *notice.Catalog
	logger  logrus.FieldLogger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(s *session.Session, camera *acquire.Camera, notices *notice.Catalog, logger logrus.FieldLogger) *SessionHandler {
	return &SessionHandler{
		session: s,
		camera:  camera,
		notices: notices,
		logger:  logger,
	}
}

// NoticeResponse is a notice rendered for one client.
type NoticeResponse struct {
	Key   string `json:"key"`
	Text  string `json:"text"`
	Error bool   `json:"error"`
}

// StateResponse represents the session state.
type StateResponse struct {
	Mode       session.Mode      `json:"mode"`
	Processing bool              `json:"processing"`
	HasPhoto   bool              `json:"has_photo"`
	Width      int               `json:"width,omitempty"`
	Height     int               `json:"height,omitempty"`
	Version    uint64            `json:"version"`
	Notice     *NoticeResponse   `json:"notice,omitempty"`
	RunID      string            `json:"run_id,omitempty"`
	LastRun    *session.RunStats `json:"last_run,omitempty"`
}

// CaptureRequest asks the server to fetch a camera snapshot. URL must be one
// of the configured cameras; empty selects the first.
type CaptureRequest struct {
	URL string `json:"url"`
}

func (h *SessionHandler) language(r *http.Request) language.Tag {
	return middleware.GetLanguage(r.Context(), h.notices.Fallback())
}

func (h *SessionHandler) renderNotice(tag language.Tag, n *session.Notice) *NoticeResponse {
	if n == nil {
		return nil
	}
	return &NoticeResponse{
		Key:   string(n.Key),
		Text:  h.notices.Text(tag, n.Key, n.Args...),
		Error: n.Error,
	}
}

func (h *SessionHandler) buildState(tag language.Tag, snap session.Snapshot) StateResponse {
	state := StateResponse{
		Mode:       snap.Mode,
		Processing: snap.Mode == session.Processing,
		HasPhoto:   snap.Photo != nil,
		Version:    snap.Version,
		Notice:     h.renderNotice(tag, snap.Notice),
		RunID:      snap.RunID,
		LastRun:    snap.LastRun,
	}
	if snap.Photo != nil {
		b := snap.Photo.Bounds()
		state.Width, state.Height = b.Dx(), b.Dy()
	}
	return state
}

// respondSessionError maps session errors to HTTP responses.
func (h *SessionHandler) respondSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		respondNotice(w, r, h.notices, http.StatusConflict, notice.Busy)
	case errors.Is(err, session.ErrNoPhoto):
		respondNotice(w, r, h.notices, http.StatusBadRequest, notice.NoPhoto)
	case errors.Is(err, session.ErrNotImplemented):
		respondNotice(w, r, h.notices, http.StatusNotImplemented, notice.ComingSoon)
	case errors.Is(err, session.ErrClosed):
		respondError(w, http.StatusServiceUnavailable, "server is shutting down")
	default:
		h.logger.WithError(err).Error("session request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *SessionHandler) respondState(w http.ResponseWriter, r *http.Request, status int) {
	snap, err := h.session.Snapshot()
	if err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondJSON(w, status, h.buildState(h.language(r), snap))
}

// State returns the current session state.
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, r, http.StatusOK)
}

// Photo serves the current photo. Before any photo is picked it serves the
// bundled overlay as a placeholder.
func (h *SessionHandler) Photo(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Snapshot()
	if err != nil {
		h.respondSessionError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	if snap.Photo == nil {
		placeholder := assets.BundledBytes()
		w.Header().Set("Content-Type", raster.DetectMIMEType(placeholder))
		w.Header().Set("Content-Length", strconv.Itoa(len(placeholder)))
		_, _ = w.Write(placeholder)
		return
	}

	format := r.URL.Query().Get("format")
	contentType := "image/png"
	switch format {
	case "", "png":
	case "jpeg", "jpg":
		contentType = "image/jpeg"
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format: %s", format))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Photo-Version", strconv.FormatUint(snap.Version, 10))
	if err := raster.Encode(w, snap.Photo, format); err != nil {
		h.logger.WithError(err).Error("failed to encode photo")
	}
}

// Upload handles a multipart photo upload (field "file").
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	photo, err := acquire.FromReader(file)
	if err != nil {
		h.logger.WithError(err).WithField("filename", sanitizeForLog(header.Filename)).Warn("upload rejected")
		h.acquisitionFailed(w, r, err)
		return
	}

	h.setPhoto(w, r, photo.Image)
}

// Capture fetches a snapshot from one of the configured cameras. An empty
// body selects the first camera.
func (h *SessionHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	snapshotURL, err := h.camera.Resolve(req.URL)
	if err != nil {
		h.logger.WithField("url", sanitizeForLog(req.URL)).Warn("capture from unconfigured camera refused")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	photo, err := h.camera.Capture(r.Context(), snapshotURL)
	if err != nil {
		h.logger.WithError(err).WithField("url", sanitizeForLog(snapshotURL)).Warn("capture failed")
		h.acquisitionFailed(w, r, err)
		return
	}

	h.setPhoto(w, r, photo.Image)
}

func (h *SessionHandler) acquisitionFailed(w http.ResponseWriter, r *http.Request, cause error) {
	if err := h.session.AcquisitionFailed(cause); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondNotice(w, r, h.notices, http.StatusUnprocessableEntity, notice.CannotOpenPhoto)
}

func (h *SessionHandler) setPhoto(w http.ResponseWriter, r *http.Request, img image.Image) {
	if err := h.session.SetPhoto(img); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	h.respondState(w, r, http.StatusOK)
}

// Process starts processing the current photo.
func (h *SessionHandler) Process(w http.ResponseWriter, r *http.Request) {
	runID, err := h.session.Process(r.Context())
	if err != nil {
		h.respondSessionError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": "processing",
	})
}

// DismissNotice clears the current notice.
func (h *SessionHandler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DismissNotice(); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	h.respondState(w, r, http.StatusOK)
}

// Share is not available yet.
func (h *SessionHandler) Share(w http.ResponseWriter, r *http.Request) {
	h.respondSessionError(w, r, h.session.Share())
}
