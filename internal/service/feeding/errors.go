package feeding

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("feeding: validation failed")
	// ErrReferenceNotFound indicates the referenced batch does not exist.
	ErrReferenceNotFound = errors.New("feeding: referenced batch not found")
	// ErrInvalidState indicates the batch is closed and accepts no new feeding records.
	ErrInvalidState = errors.New("feeding: batch is not active")
	// ErrRecordNotFound indicates the feeding record does not exist.
	ErrRecordNotFound = errors.New("feeding: record not found")
)

// ValidationError describes malformed input rejected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("feeding: validation failed for %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match any validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CompensationStep names one cleanup action run after a feeding record is deleted.
type CompensationStep string

const (
	StepCostEntry      CompensationStep = "cost_entry"
	StepBatchTotals    CompensationStep = "batch_totals"
	StepInventoryStock CompensationStep = "inventory_stock"
)

// CompensationError records a failed cleanup step. It is logged and reported,
// never returned as the error of DeleteFeeding.
type CompensationError struct {
	RecordID primitive.ObjectID
	Step     CompensationStep
	Err      error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("feeding: compensation %s for record %s failed: %v", e.Step, e.RecordID.Hex(), e.Err)
}

func (e *CompensationError) Unwrap() error {
	return e.Err
}
