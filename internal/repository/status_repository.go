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

// Colección append-only order_statuses: una fila por cambio de estado.
type MongoStatusRepository struct {
	col *mongo.Collection
}

func NewMongoStatusRepository(db *mongo.Database) *MongoStatusRepository {
	return &MongoStatusRepository{col: db.Collection("order_statuses")}
}

// EnsureIndexes crea el índice único compuesto (order, status): el mismo
// estado no puede registrarse dos veces para una orden.
func (m *MongoStatusRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "order", Value: 1},
			{Key: "status", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (m *MongoStatusRepository) Insert(ctx context.Context, rec *model.StatusRecord) error {
	rec.CreatedAt = time.Now().UTC()

	res, err := m.col.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByOrder devuelve la línea de tiempo ordenada por fecha de creación
// ascendente; _id desempata (orden de inserción).
func (m *MongoStatusRepository) FindByOrder(ctx context.Context, orderID primitive.ObjectID) ([]model.StatusRecord, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := m.col.Find(ctx, bson.M{"order": orderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []model.StatusRecord
	for cur.Next(ctx) {
		var v model.StatusRecord
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Delete saca una fila puntual (rollback cuando la orden no se pudo
// actualizar y la fila quedaría huérfana).
func (m *MongoStatusRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStatusRepository) DeleteByOrder(ctx context.Context, orderID primitive.ObjectID) error {
	_, err := m.col.DeleteMany(ctx, bson.M{"order": orderID})
	return err
}
