package repository

import (
	"context"
	"time"

	"marketplace-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoNotificationRepository struct {
	col *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{col: db.Collection("notifications")}
}

func (m *MongoNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	n.CreatedAt = time.Now().UTC()

	res, err := m.col.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	n.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *MongoNotificationRepository) FindByRecipient(ctx context.Context, recipient primitive.ObjectID) ([]*model.Notification, error) {
	return m.findMany(ctx, bson.M{"recipient": recipient})
}

func (m *MongoNotificationRepository) FindAll(ctx context.Context) ([]*model.Notification, error) {
	return m.findMany(ctx, bson.M{})
}

// MarkRead sólo marca notificaciones del propio destinatario.
func (m *MongoNotificationRepository) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*model.Notification, error) {
	filter := bson.M{"_id": id, "recipient": recipient}
	update := bson.M{"$set": bson.M{"is_read": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var res model.Notification
	err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoNotificationRepository) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) error {
	_, err := m.col.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	return err
}

func (m *MongoNotificationRepository) findMany(ctx context.Context, filter bson.M) ([]*model.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Notification
	for cur.Next(ctx) {
		var v model.Notification
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}
