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

type MongoChatRepository struct {
	col *mongo.Collection
}

func NewMongoChatRepository(db *mongo.Database) *MongoChatRepository {
	return &MongoChatRepository{col: db.Collection("chats")}
}

func (m *MongoChatRepository) Create(ctx context.Context, c *model.Chat) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Messages == nil {
		c.Messages = []model.ChatMessage{}
	}

	res, err := m.col.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *MongoChatRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Chat, error) {
	var res model.Chat
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoChatRepository) FindByParticipants(ctx context.Context, customer, vendor primitive.ObjectID) (*model.Chat, error) {
	var res model.Chat
	err := m.col.FindOne(ctx, bson.M{"customer": customer, "vendor": vendor}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoChatRepository) FindByCustomer(ctx context.Context, customer primitive.ObjectID) ([]*model.Chat, error) {
	return m.findMany(ctx, bson.M{"customer": customer})
}

func (m *MongoChatRepository) FindByVendor(ctx context.Context, vendor primitive.ObjectID) ([]*model.Chat, error) {
	return m.findMany(ctx, bson.M{"vendor": vendor})
}

// AppendMessage agrega el mensaje al hilo ($push) y refresca updated_at.
func (m *MongoChatRepository) AppendMessage(ctx context.Context, chatID primitive.ObjectID, msg model.ChatMessage) error {
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoChatRepository) findMany(ctx context.Context, filter bson.M) ([]*model.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Chat
	for cur.Next(ctx) {
		var v model.Chat
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}
