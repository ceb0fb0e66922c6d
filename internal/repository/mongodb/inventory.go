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

func (r *MongoDBRepository) CreateInventory(ctx context.Context, rec *models.InventoryRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.Movements == nil {
		rec.Movements = []models.Movement{}
	}
	if _, err := r.collection(inventoryColl).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert inventory record: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetInventory(ctx context.Context, id primitive.ObjectID) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	if err := r.findOne(ctx, inventoryColl, bson.M{"_id": id}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MongoDBRepository) ListInventory(ctx context.Context) ([]*models.InventoryRecord, error) {
	cur, err := r.collection(inventoryColl).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	var records []*models.InventoryRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode inventory: %w", err)
	}
	return records, nil
}

// SaveInventory updates the descriptive fields only. Bundle count and movements
// change exclusively through ApplyMovement.
func (r *MongoDBRepository) SaveInventory(ctx context.Context, rec *models.InventoryRecord) error {
	res, err := r.collection(inventoryColl).UpdateOne(ctx, bson.M{"_id": rec.ID}, bson.M{"$set": bson.M{
		"name":             rec.Name,
		"feed_type":        rec.FeedType,
		"price_per_bundle": rec.PricePerBundle,
		"mass_per_bundle":  rec.MassPerBundle,
		"updated_at":       rec.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to save inventory record: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ApplyMovement pushes the movement and adjusts bundle_count in a single update.
// Exit movements only match while enough bundles are on hand.
func (r *MongoDBRepository) ApplyMovement(ctx context.Context, id primitive.ObjectID, m models.Movement) error {
	filter := bson.M{"_id": id}
	if m.Type == models.MovementExit {
		filter["bundle_count"] = bson.M{"$gte": m.Bundles}
	}

	res, err := r.collection(inventoryColl).UpdateOne(ctx, filter, bson.M{
		"$inc":  bson.M{"bundle_count": m.BundleDelta()},
		"$push": bson.M{"movements": m},
		"$set":  bson.M{"updated_at": now()},
	})
	if err != nil {
		return fmt.Errorf("failed to apply inventory movement: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	found, err := r.exists(ctx, inventoryColl, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if !found {
		return repository.ErrNotFound
	}
	return repository.ErrInsufficientStock
}
