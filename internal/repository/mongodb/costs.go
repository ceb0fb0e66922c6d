package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/feedledger/internal/domain/models"
)

func (r *MongoDBRepository) CreateCost(ctx context.Context, c *models.CostEntry) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.collection(costsColl).InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to insert cost entry: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetCost(ctx context.Context, id primitive.ObjectID) (*models.CostEntry, error) {
	var c models.CostEntry
	if err := r.findOne(ctx, costsColl, bson.M{"_id": id}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *MongoDBRepository) ListCosts(ctx context.Context, from, to time.Time) ([]*models.CostEntry, error) {
	dateFilter := bson.M{}
	if !from.IsZero() {
		dateFilter["$gte"] = from
	}
	if !to.IsZero() {
		dateFilter["$lte"] = to
	}
	filter := bson.M{}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	cur, err := r.collection(costsColl).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list cost entries: %w", err)
	}

	var entries []*models.CostEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode cost entries: %w", err)
	}
	return entries, nil
}

// DeleteCost removes the entry. Deleting a missing entry succeeds.
func (r *MongoDBRepository) DeleteCost(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection(costsColl).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete cost entry: %w", err)
	}
	return nil
}
