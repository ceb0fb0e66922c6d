package mongodb

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/repository"
)

func (r *MongoDBRepository) CreateBatch(ctx context.Context, b *models.Batch) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if _, err := r.collection(batchesColl).InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetBatch(ctx context.Context, id primitive.ObjectID) (*models.Batch, error) {
	var b models.Batch
	if err := r.findOne(ctx, batchesColl, bson.M{"_id": id}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *MongoDBRepository) ListBatches(ctx context.Context, opts repository.BatchListOpts) ([]*models.Batch, error) {
	filter := bson.M{}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	cur, err := r.collection(batchesColl).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	var batches []*models.Batch
	if err := cur.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("failed to decode batches: %w", err)
	}
	return batches, nil
}

func (r *MongoDBRepository) SaveBatch(ctx context.Context, b *models.Batch) error {
	update := bson.M{"$set": bson.M{
		"name":       b.Name,
		"species":    b.Species,
		"head_count": b.HeadCount,
		"start_date": b.StartDate,
		"active":     b.Active,
		"closed_at":  b.ClosedAt,
		"updated_at": b.UpdatedAt,
	}}
	res, err := r.collection(batchesColl).UpdateOne(ctx, bson.M{"_id": b.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddFeedTotals increments the totals only while the batch is active. The
// active check and the increment are one update, so a concurrent close cannot interleave.
func (r *MongoDBRepository) AddFeedTotals(ctx context.Context, id primitive.ObjectID, mass, cost decimal.Decimal) error {
	res, err := r.collection(batchesColl).UpdateOne(ctx,
		bson.M{"_id": id, "active": true},
		bson.M{
			"$inc": bson.M{"feed_total_mass": mass, "feed_cost_total": cost},
			"$set": bson.M{"updated_at": now()},
		})
	if err != nil {
		return fmt.Errorf("failed to increment batch totals: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	found, err := r.exists(ctx, batchesColl, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if !found {
		return repository.ErrNotFound
	}
	return repository.ErrBatchInactive
}

// SubtractFeedTotals uses a pipeline update so each total is clamped at zero server-side.
func (r *MongoDBRepository) SubtractFeedTotals(ctx context.Context, id primitive.ObjectID, mass, cost decimal.Decimal) error {
	clamped := func(field string, delta decimal.Decimal) bson.D {
		return bson.D{{Key: "$max", Value: bson.A{
			decimal.Zero,
			bson.D{{Key: "$subtract", Value: bson.A{"$" + field, delta}}},
		}}}
	}

	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "feed_total_mass", Value: clamped("feed_total_mass", mass)},
		{Key: "feed_cost_total", Value: clamped("feed_cost_total", cost)},
		{Key: "updated_at", Value: now()},
	}}}}

	res, err := r.collection(batchesColl).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to revert batch totals: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	r.logger.Debug("batch totals reverted", zap.String("batch_id", id.Hex()))
	return nil
}
