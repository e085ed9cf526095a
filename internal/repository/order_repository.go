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

// Mongo implementation
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

func (m *MongoOrderRepository) Create(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	res, err := m.col.InsertOne(ctx, o)
	if err != nil {
		return err
	}
	o.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

// UpdateStatus aplica el cambio de estado con compare-and-swap sobre el
// estado actual: $set del estado nuevo y $push al historial en una sola
// operación atómica. Si otro escritor ganó la carrera (el estado ya no es
// fromStatus), devuelve ErrStale y no escribe nada.
func (m *MongoOrderRepository) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, fromStatus, toStatus string, entry model.TrackingEntry) error {
	filter := bson.M{
		"_id":          orderID,
		"order_status": fromStatus,
	}
	update := bson.M{
		"$set": bson.M{
			"order_status": toStatus,
			"updated_at":   time.Now().UTC(),
		},
		"$push": bson.M{
			"tracking_history": entry,
		},
	}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStale
	}
	return nil
}

// AssignVendor fija el vendor y pasa a Assigned en la misma escritura CAS.
func (m *MongoOrderRepository) AssignVendor(ctx context.Context, orderID, vendorID primitive.ObjectID, fromStatus string, entry model.TrackingEntry) error {
	filter := bson.M{
		"_id":          orderID,
		"order_status": fromStatus,
	}
	update := bson.M{
		"$set": bson.M{
			"vendor":       vendorID,
			"order_status": entry.Status,
			"updated_at":   time.Now().UTC(),
		},
		"$push": bson.M{
			"tracking_history": entry,
		},
	}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStale
	}
	return nil
}

func (m *MongoOrderRepository) UpdatePaymentStatus(ctx context.Context, orderID primitive.ObjectID, status string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": orderID}, bson.M{
		"$set": bson.M{
			"payment_status": status,
			"updated_at":     time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoOrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoOrderRepository) FindByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{"customer": customerID})
}

func (m *MongoOrderRepository) FindByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{"vendor": vendorID})
}

func (m *MongoOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{})
}

func (m *MongoOrderRepository) Count(ctx context.Context) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{})
}

func (m *MongoOrderRepository) findMany(ctx context.Context, filter bson.M) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Order
	for cur.Next(ctx) {
		var v model.Order
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}
