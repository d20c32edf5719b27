package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"s3transfer/internal/apperr"
	"s3transfer/internal/models"
	"s3transfer/pkg/utils"
)

const (
	transferFailedMessage = "Error during file transfer"
	downloadFailedMessage = "Error during file download"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthCheck{Status: "healthy", Version: s.version})
}

func (s *Server) handleTransfer(c *gin.Context) {
	var req models.TransferRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err, transferFailedMessage)
		return
	}

	result, err := s.transfers.Transfer(c.Request.Context(), req.Selection())
	if err != nil {
		slog.Error("Error in transfer endpoint", "error", err)
		writeError(c, err, transferFailedMessage)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDownload(c *gin.Context) {
	var req models.DownloadRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err, downloadFailedMessage)
		return
	}
	query, err := req.Validate()
	if err != nil {
		writeError(c, err, downloadFailedMessage)
		return
	}

	result, err := s.downloads.Download(c.Request.Context(), query)
	if err != nil {
		slog.Error("Error in download endpoint", "lane_id", query.LaneID, "error", err)
		writeError(c, err, downloadFailedMessage)
		return
	}
	c.JSON(http.StatusOK, result)
}

// bindJSON decodes the body into v. An empty body leaves v at its zero value.
func bindJSON(c *gin.Context, v any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.NewValidationError("body", "%v", err)
	}
	return nil
}

// writeError answers 400 with the validation message, and 500 with fallback
// for everything else. The kind is reported in both cases.
func writeError(c *gin.Context, err error, fallback string) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	message := fallback
	if kind == apperr.KindValidation {
		status = http.StatusBadRequest
		message = err.Error()
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error:     message,
		Kind:      string(kind),
		Timestamp: utils.FormatTime(time.Now()),
	})
}
