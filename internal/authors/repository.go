package authors

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inkpress/inkpress/internal/models"
)

// Repository defines persistence operations for authors.
type Repository interface {
	UpsertBySub(ctx context.Context, a *models.Author) (*models.Author, error)
	GetBySub(ctx context.Context, sub string) (*models.Author, error)
}

// MongoRepository implements Repository using MongoDB.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) UpsertBySub(ctx context.Context, a *models.Author) (*models.Author, error) {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	filter := bson.M{"sub": a.Sub}
	update := bson.M{"$set": bson.M{
		"email":     a.Email,
		"name":      a.Name,
		"updatedAt": a.UpdatedAt,
		"createdAt": a.CreatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.Author
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return a, nil
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoRepository) GetBySub(ctx context.Context, sub string) (*models.Author, error) {
	var a models.Author
	if err := r.col.FindOne(ctx, bson.M{"sub": sub}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
