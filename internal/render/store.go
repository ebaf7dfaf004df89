package render

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists render job metadata.
type Store interface {
	// Save upserts the job by jobId.
	Save(ctx context.Context, job *Job) error
	// Load fetches a job by jobId. Returns nil when not found.
	Load(ctx context.Context, jobID string) (*Job, error)
}

// MongoStore keeps render jobs in a Mongo collection, upserting by jobId so
// repeated state transitions overwrite a single record.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Save(ctx context.Context, job *Job) error {
	filter := bson.M{"jobId": job.JobID}
	opts := options.Update().SetUpsert(true)
	if _, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": job}, opts); err != nil {
		return fmt.Errorf("save render job: %w", err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := s.col.FindOne(ctx, bson.M{"jobId": jobID}).Decode(&job); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// MemoryStore is the Store used when Mongo is not configured.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (s *MemoryStore) Save(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = *job
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if j, ok := s.jobs[jobID]; ok {
		cp := j
		return &cp, nil
	}
	return nil, nil
}
