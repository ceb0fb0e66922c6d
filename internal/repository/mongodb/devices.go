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

func (r *MongoDBRepository) CreateDevice(ctx context.Context, d *models.Device) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if _, err := r.collection(devicesColl).InsertOne(ctx, d); err != nil {
		return fmt.Errorf("failed to insert device: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) ListDevices(ctx context.Context) ([]*models.Device, error) {
	cur, err := r.collection(devicesColl).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	var devices []*models.Device
	if err := cur.All(ctx, &devices); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}
	return devices, nil
}

func (r *MongoDBRepository) DeleteDevice(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection(devicesColl).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
