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

type MongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{col: db.Collection("products")}
}

func (m *MongoProductRepository) Create(ctx context.Context, p *model.Product) error {
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

func (m *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	var res model.Product
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

// FindPublic lista sólo productos activos; category vacío = todas.
func (m *MongoProductRepository) FindPublic(ctx context.Context, category string) ([]*model.Product, error) {
	filter := bson.M{"is_active": true}
	if category != "" {
		filter["category"] = category
	}
	return m.findMany(ctx, filter)
}

func (m *MongoProductRepository) FindByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]*model.Product, error) {
	return m.findMany(ctx, bson.M{"vendor": vendorID})
}

func (m *MongoProductRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*model.Product, error) {
	fields["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var res model.Product
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock descuenta stock sólo si alcanza (filtro stock >= qty).
// Si no alcanza devuelve ErrStale; si el producto no existe, ErrNotFound.
func (m *MongoProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	filter := bson.M{
		"_id":   id,
		"stock": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, ferr := m.FindByID(ctx, id); ferr != nil {
			return ferr
		}
		return ErrStale
	}
	return nil
}

// IncrementStock repone stock (compensación cuando una orden no prospera).
func (m *MongoProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoProductRepository) Count(ctx context.Context) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{})
}

func (m *MongoProductRepository) findMany(ctx context.Context, filter bson.M) ([]*model.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Product
	for cur.Next(ctx) {
		var v model.Product
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}
