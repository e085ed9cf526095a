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

type MongoPaymentRepository struct {
	col    *mongo.Collection
	events *mongo.Collection
}

func NewMongoPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	return &MongoPaymentRepository{
		col:    db.Collection("payments"),
		events: db.Collection("webhook_events"),
	}
}

func (m *MongoPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := m.col.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *MongoPaymentRepository) FindAll(ctx context.Context) ([]*model.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Payment
	for cur.Next(ctx) {
		var v model.Payment
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}

// UpdateStatusByTransaction marca el pago y devuelve el documento ya
// actualizado (para conocer la orden a reconciliar).
func (m *MongoPaymentRepository) UpdateStatusByTransaction(ctx context.Context, transactionID, status string) (*model.Payment, error) {
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var res model.Payment
	err := m.col.FindOneAndUpdate(ctx, bson.M{"transaction_id": transactionID}, update, opts).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

// MarkEventSeen registra el id de evento del proveedor; si ya se procesó
// devuelve ErrDuplicate (el webhook reintenta entregas).
func (m *MongoPaymentRepository) MarkEventSeen(ctx context.Context, eventID string) error {
	_, err := m.events.InsertOne(ctx, bson.M{
		"_id":        eventID,
		"created_at": time.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// UnmarkEvent libera el id de evento cuando el procesamiento falló después
// de marcarlo: el reintento del proveedor debe poder procesarlo de nuevo.
func (m *MongoPaymentRepository) UnmarkEvent(ctx context.Context, eventID string) error {
	_, err := m.events.DeleteOne(ctx, bson.M{"_id": eventID})
	return err
}

// Count para el dashboard de admin.
func (m *MongoPaymentRepository) Count(ctx context.Context) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{})
}
