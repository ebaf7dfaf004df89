package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inkpress/inkpress/internal/post"
)

// MongoRepo is the MongoDB-backed post repository. Posts keep their string
// IDs (assigned at create time) rather than ObjectIDs so the memory and
// Mongo repos stay interchangeable.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// slugs are permalink components and must be unique
	idx := mongo.IndexModel{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(p *post.Post) (string, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = "post_" + now.Format("20060102T150405.000000000")
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := m.col.InsertOne(context.Background(), p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrSlugConflict
		}
		return "", err
	}
	return p.ID, nil
}

func (m *MongoRepo) Get(id string) (*post.Post, error) {
	return m.findOne(bson.M{"_id": id})
}

func (m *MongoRepo) GetBySlug(slug string) (*post.Post, error) {
	return m.findOne(bson.M{"slug": slug})
}

func (m *MongoRepo) findOne(filter bson.M) (*post.Post, error) {
	var p post.Post
	if err := m.col.FindOne(context.Background(), filter).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) List() ([]*post.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "frontMatter.date", Value: -1}})
	cur, err := m.col.Find(context.Background(), bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(context.Background())
	out := []*post.Post{}
	for cur.Next(context.Background()) {
		var p post.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Update(id string, p *post.Post) error {
	set := bson.M{
		"slug":        p.Slug,
		"frontMatter": p.FrontMatter,
		"body":        p.Body,
		"draft":       p.Draft,
		"updatedAt":   time.Now().UTC(),
	}
	res, err := m.col.UpdateOne(context.Background(), bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugConflict
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(id string) error {
	res, err := m.col.DeleteOne(context.Background(), bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
