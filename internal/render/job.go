package render

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inkpress/inkpress/internal/post"
	"github.com/inkpress/inkpress/pkg/logger"
	"github.com/inkpress/inkpress/pkg/metrics"
)

// Job statuses.
const (
	StatusQueued    = "queued"
	StatusRendering = "rendering"
	StatusReady     = "ready"
	StatusCanceled  = "canceled"
	StatusError     = "error"
)

// Job is the metadata for one asynchronous render of a post.
type Job struct {
	JobID       string    `bson:"jobId" json:"jobId"`
	PostID      string    `bson:"postId" json:"postId"`
	Status      string    `bson:"status" json:"status"`
	Logs        string    `bson:"logs" json:"logs"`
	ArtifactKey string    `bson:"artifactKey,omitempty" json:"artifactKey,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ArtifactUploader stores rendered HTML; satisfied by assets.MinIOStorage.
type ArtifactUploader interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Manager runs render jobs. Live jobs are tracked in memory; every state
// transition is also written through the Store so job history survives
// restarts. The uploader and store may both be nil (tests, minimal deploys).
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	store    Store
	uploader ArtifactUploader
	cache    *Cache
}

func NewManager(store Store, uploader ArtifactUploader, cache *Cache) *Manager {
	return &Manager{jobs: make(map[string]*Job), store: store, uploader: uploader, cache: cache}
}

// Enqueue creates a job for the post and starts rendering in the background.
func (m *Manager) Enqueue(ctx context.Context, p *post.Post) *Job {
	now := time.Now().UTC()
	job := &Job{
		JobID:     fmt.Sprintf("render_%d", now.UnixNano()),
		PostID:    p.ID,
		Status:    StatusQueued,
		Logs:      "queued\n",
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	m.jobs[job.JobID] = job
	m.mu.Unlock()
	m.persist(ctx, job)

	go m.run(job.JobID, p)
	return job
}

func (m *Manager) run(jobID string, p *post.Post) {
	ctx := context.Background()
	if !m.transition(ctx, jobID, StatusQueued, StatusRendering, "rendering started\n") {
		return
	}

	html, err := post.RenderPage(p)
	if err != nil {
		metrics.PageRenders.WithLabelValues("error").Inc()
		m.fail(ctx, jobID, err)
		return
	}
	key := SourceKey(p.Source())

	if m.uploader != nil {
		artifactKey := fmt.Sprintf("renders/%s/%s.html", p.ID, key)
		if err := m.uploader.UploadObject(ctx, artifactKey, []byte(html), "text/html; charset=utf-8"); err != nil {
			metrics.PageRenders.WithLabelValues("error").Inc()
			m.fail(ctx, jobID, fmt.Errorf("upload artifact: %w", err))
			return
		}
		m.setArtifact(jobID, artifactKey)
	}
	if m.cache != nil {
		if err := m.cache.Put(ctx, key, html); err != nil {
			logger.Warnf("render job %s: cache put failed: %v", jobID, err)
		}
	}

	metrics.PageRenders.WithLabelValues("ok").Inc()
	m.transition(ctx, jobID, StatusRendering, StatusReady, "render complete\n")
}

// Get returns the live job, preferring memory and falling back to the store.
func (m *Manager) Get(ctx context.Context, jobID string) (*Job, error) {
	m.mu.RLock()
	job, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if ok {
		cp := *job
		return &cp, nil
	}
	if m.store != nil {
		return m.store.Load(ctx, jobID)
	}
	return nil, nil
}

// Latest returns the most recent job for a post, or nil when none exists.
func (m *Manager) Latest(ctx context.Context, postID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *Job
	for _, j := range m.jobs {
		if j.PostID != postID {
			continue
		}
		if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
			latest = j
		}
	}
	if latest == nil {
		return nil
	}
	cp := *latest
	return &cp
}

// Cancel stops a queued or running job for the post. Returns the canceled
// job, or nil when nothing was cancelable.
func (m *Manager) Cancel(ctx context.Context, postID string) *Job {
	m.mu.Lock()
	var target *Job
	for _, j := range m.jobs {
		if j.PostID == postID && (j.Status == StatusQueued || j.Status == StatusRendering) {
			target = j
			break
		}
	}
	if target != nil {
		target.Status = StatusCanceled
		target.Logs += "canceled by user\n"
		target.UpdatedAt = time.Now().UTC()
	}
	m.mu.Unlock()
	if target == nil {
		return nil
	}
	cp := *target
	m.persist(ctx, &cp)
	return &cp
}

// transition moves a job from one status to the next; it refuses to act when
// the job was canceled (or otherwise moved) in the meantime.
func (m *Manager) transition(ctx context.Context, jobID, from, to, logLine string) bool {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok || job.Status != from {
		m.mu.Unlock()
		return false
	}
	job.Status = to
	job.Logs += logLine
	job.UpdatedAt = time.Now().UTC()
	cp := *job
	m.mu.Unlock()
	m.persist(ctx, &cp)
	return true
}

func (m *Manager) fail(ctx context.Context, jobID string, err error) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if ok && job.Status == StatusRendering {
		job.Status = StatusError
		job.Logs += "error: " + err.Error() + "\n"
		if !strings.HasSuffix(job.Logs, "\n") {
			job.Logs += "\n"
		}
		job.UpdatedAt = time.Now().UTC()
	}
	var cp *Job
	if ok {
		c := *job
		cp = &c
	}
	m.mu.Unlock()
	if cp != nil {
		m.persist(ctx, cp)
	}
}

func (m *Manager) setArtifact(jobID, key string) {
	m.mu.Lock()
	if job, ok := m.jobs[jobID]; ok {
		job.ArtifactKey = key
	}
	m.mu.Unlock()
}

func (m *Manager) persist(ctx context.Context, job *Job) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, job); err != nil {
		logger.Warnf("render job %s: persist failed: %v", job.JobID, err)
	}
}
