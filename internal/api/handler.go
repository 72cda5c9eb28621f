package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"valentine/internal/config"
	"valentine/models"
	"valentine/utils"
)

// EventStore is the persistence the handlers need.
type EventStore interface {
	InsertSignature(ctx context.Context, holdSeconds float64, note *string) (uint, error)
	LastSignature(ctx context.Context) (*models.Signature, error)
	InsertClick(ctx context.Context, actionLabel string, sticker, photoSrc *string) (uint, error)
}

type Handler struct {
	store    EventStore
	logger   *zap.Logger
	imageDir string
	maxBody  int64
	index    *indexLoader
}

func NewHandler(store EventStore, logger *zap.Logger, content config.ContentConfig, maxBody int64) *Handler {
	return &Handler{
		store:    store,
		logger:   logger.With(zap.String("handler", "valentine")),
		imageDir: content.ImageDir,
		maxBody:  maxBody,
		index:    newIndexLoader(content.IndexFile),
	}
}

func (h *Handler) HandleIndex(c *gin.Context) {
	body, err := h.index.Load()
	if err != nil {
		h.logger.Warn("Index document unavailable", zap.Error(err))
		writeError(c, http.StatusNotFound, "index.html not found")
		return
	}
	c.Header("Content-Length", strconv.Itoa(len(body)))
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

func (h *Handler) HandleImage(c *gin.Context) {
	rel := c.Param("filepath")

	path, err := utils.ResolveWithin(h.imageDir, rel)
	if errors.Is(err, utils.ErrOutsideRoot) {
		h.logger.Warn("Blocked image path outside root",
			zap.String("path", rel),
			zap.String("client_ip", c.ClientIP()))
		writeError(c, http.StatusForbidden, "Forbidden")
		return
	}
	if err != nil {
		writeError(c, http.StatusNotFound, "Not found")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		writeError(c, http.StatusNotFound, "Not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(c, http.StatusNotFound, "Not found")
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), utils.ContentType(rel), f, nil)
}

func (h *Handler) HandleLast(c *gin.Context) {
	last, err := h.store.LastSignature(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to load last signature", err)
		return
	}
	writeJSON(c, http.StatusOK, lastResponse{OK: true, Last: last})
}

func (h *Handler) HandleSign(c *gin.Context) {
	fields, err := h.readFields(c)
	if err != nil {
		h.rejectRequest(c, err)
		return
	}
	req, err := parseSignRequest(fields)
	if err != nil {
		h.rejectRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	id, err := h.store.InsertSignature(ctx, req.HoldSeconds, req.Note)
	if err != nil {
		h.internalError(c, "Failed to save signature", err)
		return
	}
	doc, err := h.store.LastSignature(ctx)
	if err != nil {
		h.internalError(c, "Failed to load last signature", err)
		return
	}

	h.logger.Info("Love document signed",
		zap.Uint("document_id", id),
		zap.Float64("hold_seconds", req.HoldSeconds))
	writeJSON(c, http.StatusOK, signResponse{OK: true, DocumentID: id, Document: doc})
}

func (h *Handler) HandleClick(c *gin.Context) {
	fields, err := h.readFields(c)
	if err != nil {
		h.rejectRequest(c, err)
		return
	}
	req, err := parseClickRequest(fields)
	if err != nil {
		h.rejectRequest(c, err)
		return
	}

	id, err := h.store.InsertClick(c.Request.Context(), req.ActionLabel, req.Sticker, req.PhotoSrc)
	if err != nil {
		h.internalError(c, "Failed to save click", err)
		return
	}

	h.logger.Info("Button click recorded",
		zap.Uint("click_id", id),
		zap.String("action_label", req.ActionLabel))
	writeJSON(c, http.StatusOK, clickResponse{OK: true, ClickID: id})
}

func (h *Handler) HandleNotFound(c *gin.Context) {
	writeError(c, http.StatusNotFound, "Not found")
}

func (h *Handler) readFields(c *gin.Context) (map[string]any, error) {
	body, err := readBody(c, h.maxBody)
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

func (h *Handler) rejectRequest(c *gin.Context, err error) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		h.internalError(c, "Unexpected request error", err)
		return
	}
	h.logger.Debug("Rejected request",
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", reqErr.Status),
		zap.String("reason", reqErr.Message))
	writeError(c, reqErr.Status, reqErr.Message)
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
	writeError(c, http.StatusInternalServerError, "Internal server error")
}
