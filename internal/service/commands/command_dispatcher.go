package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/service/feeding"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	dateFormat = "2006-01-02"

	feedUsage   = "/feed <batch-id> <kg> <price-per-kg> [feed-type]"
	totalsUsage = "/totals <batch-id>"
)

// HelpText lists the supported commands.
var HelpText = strings.Join([]string{
	"Supported commands:",
	feedUsage + " records a feeding, e.g. /feed 65f0c1a2b3c4d5e6f7a8b9c0 8 1.5 grower",
	totalsUsage + " shows feed mass and cost recorded for a batch",
	"/help shows this message",
}, "\n")

// FeedingLedger is the part of the feeding ledger commands drive.
type FeedingLedger interface {
	RecordFeeding(ctx context.Context, in feeding.RecordInput) (*models.FeedingRecord, error)
	TotalsForBatch(ctx context.Context, batchID primitive.ObjectID) (models.FeedingTotals, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	ledger FeedingLedger
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(ledger FeedingLedger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledger, logger: logger, now: time.Now}
}

// HandleCommand runs the command against the ledger.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandFeed:
		in, err := s.buildRecordInput(cmd, sender)
		if err != nil {
			return "", err
		}
		rec, err := s.ledger.RecordFeeding(ctx, in)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Feeding saved for %s: %s kg of %s at %s = %s (ref %s).",
			rec.Date.Format(dateFormat), rec.Quantity.String(), rec.FeedType,
			rec.Price.String(), rec.Total.StringFixed(2), rec.ID.Hex()), nil

	case models.CommandTotals:
		if len(cmd.Args) != 1 {
			return "", fmt.Errorf("%w: usage %s", ErrInvalidArguments, totalsUsage)
		}
		batchID, err := primitive.ObjectIDFromHex(cmd.Args[0])
		if err != nil {
			return "", fmt.Errorf("%w: batch id %q is not valid", ErrInvalidArguments, cmd.Args[0])
		}
		totals, err := s.ledger.TotalsForBatch(ctx, batchID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Batch %s: %s kg of feed, cost %s, across %d records.",
			batchID.Hex(), totals.Mass.String(), totals.Cost.StringFixed(2), totals.Records), nil

	case models.CommandHelp:
		return HelpText, nil

	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) buildRecordInput(cmd models.Command, sender string) (feeding.RecordInput, error) {
	if len(cmd.Args) < 3 || len(cmd.Args) > 4 {
		return feeding.RecordInput{}, fmt.Errorf("%w: usage %s", ErrInvalidArguments, feedUsage)
	}

	batchID, err := primitive.ObjectIDFromHex(cmd.Args[0])
	if err != nil {
		return feeding.RecordInput{}, fmt.Errorf("%w: batch id %q is not valid", ErrInvalidArguments, cmd.Args[0])
	}

	quantity, err := parseAmount(cmd.Args[1])
	if err != nil {
		return feeding.RecordInput{}, fmt.Errorf("%w: quantity %q is not a number", ErrInvalidArguments, cmd.Args[1])
	}

	price, err := parseAmount(cmd.Args[2])
	if err != nil {
		return feeding.RecordInput{}, fmt.Errorf("%w: price %q is not a number", ErrInvalidArguments, cmd.Args[2])
	}

	in := feeding.RecordInput{
		BatchID:    batchID,
		Date:       s.now().UTC(),
		Quantity:   quantity,
		Price:      price,
		RecordedBy: sender,
	}
	if len(cmd.Args) == 4 {
		in.FeedType = models.FeedType(strings.ToLower(cmd.Args[3]))
	}
	return in, nil
}

// parseAmount accepts a decimal comma as typed on French-locale phones.
func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
}

// ErrorReply turns a command failure into a message safe to send back to the worker.
func ErrorReply(err error) string {
	var verr *feeding.ValidationError
	switch {
	case errors.Is(err, ErrUnsupportedCommand):
		return "Unknown command.\n" + HelpText
	case errors.Is(err, ErrInvalidArguments):
		return "Could not read that command: " + strings.TrimPrefix(err.Error(), ErrInvalidArguments.Error()+": ")
	case errors.As(err, &verr):
		return fmt.Sprintf("Rejected: %s %s.", verr.Field, verr.Message)
	case errors.Is(err, feeding.ErrReferenceNotFound):
		return "Batch not found. Check the batch id."
	case errors.Is(err, feeding.ErrInvalidState):
		return "This batch is closed and no longer accepts feedings."
	default:
		return "Something went wrong while saving. Please try again later."
	}
}
