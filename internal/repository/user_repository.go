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
type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection("users")}
}

// EnsureIndexes crea el índice único por email.
func (m *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (m *MongoUserRepository) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	res, err := m.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var res model.User
	err := m.col.FindOne(ctx, bson.M{"email": email}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var res model.User
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoUserRepository) FindByRole(ctx context.Context, role string) ([]*model.User, error) {
	return m.findMany(ctx, bson.M{"role": role})
}

// FindPendingVendors lista los vendors todavía sin aprobar.
func (m *MongoUserRepository) FindPendingVendors(ctx context.Context) ([]*model.User, error) {
	return m.findMany(ctx, bson.M{"role": model.RoleVendor, "approved": false})
}

// UpdateApproval marca al usuario como aprobado o rechazado y devuelve el
// documento actualizado.
func (m *MongoUserRepository) UpdateApproval(ctx context.Context, id primitive.ObjectID, approved bool) (*model.User, error) {
	update := bson.M{
		"$set": bson.M{
			"approved":   approved,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var res model.User
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoUserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{"role": role})
}

func (m *MongoUserRepository) findMany(ctx context.Context, filter bson.M) ([]*model.User, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.User
	for cur.Next(ctx) {
		var v model.User
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}
