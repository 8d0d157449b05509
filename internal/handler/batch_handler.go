package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/grachmannico95/payments-engine/internal/domain"
	"github.com/grachmannico95/payments-engine/internal/report"
	"github.com/grachmannico95/payments-engine/internal/service"
	"github.com/grachmannico95/payments-engine/pkg/logger"
	"github.com/labstack/echo/v4"
)

type BatchHandler struct {
	service        service.BatchService
	logger         *logger.Logger
	maxUploadBytes int64
}

func NewBatchHandler(service service.BatchService, log *logger.Logger, maxUploadBytes int64) *BatchHandler {
	return &BatchHandler{
		service:        service,
		logger:         log,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload accepts a transaction stream either as the multipart field "file"
// or as the raw request body, and processes it before responding.
func (h *BatchHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	h.logger.Info(ctx, "Handling upload request")

	if h.maxUploadBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.maxUploadBytes)
	}

	src, err := h.openUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
				"error": "upload too large",
			})
		}

		h.logger.Error(ctx, "Failed to get file from request",
			"error", err,
		)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "file is required",
		})
	}
	defer src.Close()

	batch, err := h.service.SubmitBatch(ctx, src)
	if err != nil {
		return h.uploadError(c, batch, err)
	}

	h.logger.Info(ctx, "Upload successful",
		"batch_id", batch.ID,
	)

	return c.JSON(http.StatusCreated, batch)
}

func (h *BatchHandler) openUpload(c echo.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		return file.Open()
	}

	if c.Request().ContentLength == 0 {
		return nil, errors.New("empty request body")
	}

	return c.Request().Body, nil
}

func (h *BatchHandler) uploadError(c echo.Context, batch *domain.Batch, err error) error {
	ctx := c.Request().Context()

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]interface{}{
			"error": "upload too large",
			"batch": batch,
		})
	case errors.Is(err, domain.ErrInvalidCSVFormat):
		h.logger.Warn(ctx, "Rejected malformed upload",
			"error", err,
		)
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error": err.Error(),
			"batch": batch,
		})
	}

	h.logger.Error(ctx, "Failed to process upload",
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": "failed to process batch",
		"batch": batch,
	})
}

func (h *BatchHandler) GetBatch(c echo.Context) error {
	ctx := c.Request().Context()
	batchID := c.Param("id")

	batch, err := h.service.GetBatch(ctx, batchID)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(http.StatusOK, batch)
}

// GetAccounts returns the final account snapshot of a completed batch, as
// CSV when the client asks for text/csv.
func (h *BatchHandler) GetAccounts(c echo.Context) error {
	ctx := c.Request().Context()
	batchID := c.Param("id")

	accounts, err := h.service.GetAccounts(ctx, batchID)
	if err != nil {
		return h.lookupError(c, err)
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "text/csv") {
		c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
		c.Response().WriteHeader(http.StatusOK)
		return report.WriteCSV(c.Response(), accounts)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"batch_id": batchID,
		"accounts": accounts,
	})
}

func (h *BatchHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var statusFilter *domain.BatchStatus
	if statusParam := c.QueryParam("status"); statusParam != "" {
		status := domain.BatchStatus(statusParam)
		switch status {
		case domain.BatchStatusProcessing, domain.BatchStatusCompleted, domain.BatchStatusFailed:
			statusFilter = &status
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "status must be processing, completed or failed",
			})
		}
	}

	batches, err := h.service.ListBatches(ctx, statusFilter)
	if err != nil {
		h.logger.Error(ctx, "Failed to list batches",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list batches",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": batches,
		"total": len(batches),
	})
}

func (h *BatchHandler) lookupError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrBatchNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "batch not found",
		})
	case errors.Is(err, domain.ErrBatchNotFinished):
		return c.JSON(http.StatusConflict, map[string]string{
			"error": err.Error(),
		})
	}

	h.logger.Error(c.Request().Context(), "Failed to get batch",
		"batch_id", c.Param("id"),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "failed to get batch",
	})
}
