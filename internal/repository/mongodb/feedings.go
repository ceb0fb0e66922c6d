package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/repository"
)

func (r *MongoDBRepository) CreateFeeding(ctx context.Context, rec *models.FeedingRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if _, err := r.collection(feedingsColl).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert feeding record: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetFeeding(ctx context.Context, id primitive.ObjectID) (*models.FeedingRecord, error) {
	var rec models.FeedingRecord
	if err := r.findOne(ctx, feedingsColl, bson.M{"_id": id}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MongoDBRepository) DeleteFeeding(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection(feedingsColl).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete feeding record: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoDBRepository) ListFeedings(ctx context.Context, batchID primitive.ObjectID, opts repository.FeedingListOpts) ([]*models.FeedingRecord, error) {
	filter := bson.M{"batch_id": batchID}
	if !opts.Since.IsZero() {
		filter["date"] = bson.M{"$gte": opts.Since}
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cur, err := r.collection(feedingsColl).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeding records: %w", err)
	}

	var records []*models.FeedingRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode feeding records: %w", err)
	}
	return records, nil
}
