package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/service/batches"
	"github.com/mamadbah2/feedledger/internal/service/costs"
	"github.com/mamadbah2/feedledger/internal/service/feeding"
	"github.com/mamadbah2/feedledger/internal/service/inventory"
	"github.com/mamadbah2/feedledger/internal/service/notifications"
)

const dateLayout = "2006-01-02"

var errInvalidID = errors.New("invalid id")

func statusFor(err error) int {
	switch {
	case errors.Is(err, feeding.ErrValidation),
		errors.Is(err, batches.ErrInvalidInput),
		errors.Is(err, inventory.ErrInvalidInput),
		errors.Is(err, costs.ErrInvalidInput),
		errors.Is(err, notifications.ErrInvalidDevice),
		errors.Is(err, errInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, feeding.ErrReferenceNotFound),
		errors.Is(err, feeding.ErrRecordNotFound),
		errors.Is(err, batches.ErrNotFound),
		errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, costs.ErrNotFound),
		errors.Is(err, notifications.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, feeding.ErrInvalidState),
		errors.Is(err, batches.ErrAlreadyClosed),
		errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status. Internal errors are logged and not echoed.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	var verr *feeding.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{"error": verr.Error(), "field": verr.Field})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, error) {
	return parseID(c.Param(name))
}

func parseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errInvalidID
	}
	return id, nil
}

func parseOptionalID(raw *string) (*primitive.ObjectID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}

func queryDate(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.New(key + " must be a date formatted YYYY-MM-DD")
	}
	return t, nil
}
