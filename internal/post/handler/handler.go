package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/internal/feed"
	"github.com/inkpress/inkpress/internal/linkcheck"
	"github.com/inkpress/inkpress/internal/post"
	"github.com/inkpress/inkpress/internal/post/service"
	"github.com/inkpress/inkpress/internal/render"
	"github.com/inkpress/inkpress/pkg/metrics"
)

// Site describes the published site for feed and permalink generation.
type Site struct {
	Title       string
	BaseURL     string
	Description string
}

// Handler wires the post API and the public pages.
type Handler struct {
	svc     service.Service
	renders *render.Manager
	cache   *render.Cache
	checker *linkcheck.Checker
	site    Site
}

// New builds a handler. renders, cache and checker may be nil; the related
// endpoints degrade gracefully (no cache, synchronous 503 for jobs).
func New(svc service.Service, renders *render.Manager, cache *render.Cache, checker *linkcheck.Checker, site Site) *Handler {
	return &Handler{svc: svc, renders: renders, cache: cache, checker: checker, site: site}
}

// Register mounts all routes. When authMW is non-nil it guards the write
// endpoints; reads and public pages stay open.
func (h *Handler) Register(r *gin.Engine, authMW gin.HandlerFunc) {
	guard := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if authMW != nil {
			return []gin.HandlerFunc{authMW, fn}
		}
		return []gin.HandlerFunc{fn}
	}

	r.GET("/api/posts", h.List)
	r.GET("/api/posts/:id", h.Get)
	r.POST("/api/posts", guard(h.Create)...)
	r.PATCH("/api/posts/:id", guard(h.Update)...)
	r.DELETE("/api/posts/:id", guard(h.Delete)...)

	r.POST("/api/posts/:id/publish", guard(h.Publish)...)
	r.POST("/api/posts/:id/render", guard(h.Render)...)
	r.GET("/api/posts/:id/render/logs", h.RenderLogs)
	r.POST("/api/posts/:id/render/cancel", guard(h.RenderCancel)...)
	r.POST("/api/posts/:id/links/check", guard(h.CheckLinks)...)

	r.GET("/posts/:year/:month/:day/:slug", h.Page)
	r.GET("/feed.xml", h.Feed)
}

type createRequest struct {
	Source string `json:"source" binding:"required"`
	Draft  bool   `json:"draft"`
}

type updateRequest struct {
	Source string `json:"source" binding:"required"`
	Draft  *bool  `json:"draft,omitempty"`
}

// List returns a short listing: metadata only, newest first.
func (h *Handler) List(c *gin.Context) {
	posts, err := h.svc.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, gin.H{
			"id":        p.ID,
			"slug":      p.Slug,
			"title":     p.FrontMatter.Title,
			"date":      p.FrontMatter.Date,
			"author":    p.FrontMatter.Author,
			"draft":     p.Draft,
			"permalink": p.PermalinkPath(),
			"updatedAt": p.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Create(req.Source, req.Draft)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "slug": p.Slug, "permalink": p.PermalinkPath()})
}

func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Param("id"))
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          p.ID,
		"slug":        p.Slug,
		"frontMatter": p.FrontMatter,
		"body":        p.Body,
		"source":      p.Source(),
		"draft":       p.Draft,
		"permalink":   p.PermalinkPath(),
		"createdAt":   p.CreatedAt,
		"updatedAt":   p.UpdatedAt,
	})
}

func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Update(c.Param("id"), req.Source, req.Draft)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "slug": p.Slug, "permalink": p.PermalinkPath()})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		writeServiceErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Publish clears the draft flag and queues a render of the now-public page.
func (h *Handler) Publish(c *gin.Context) {
	p, err := h.svc.Publish(c.Param("id"))
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	resp := gin.H{"id": p.ID, "permalink": p.PermalinkPath(), "draft": p.Draft}
	if h.renders != nil {
		job := h.renders.Enqueue(c.Request.Context(), p)
		resp["jobId"] = job.JobID
		resp["status"] = job.Status
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Render(c *gin.Context) {
	if h.renders == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "render pipeline not configured"})
		return
	}
	p, err := h.svc.Get(c.Param("id"))
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	job := h.renders.Enqueue(c.Request.Context(), p)
	c.JSON(http.StatusAccepted, gin.H{"jobId": job.JobID, "status": job.Status, "postId": p.ID})
}

func (h *Handler) RenderLogs(c *gin.Context) {
	if h.renders == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "render pipeline not configured"})
		return
	}
	job := h.renders.Latest(c.Request.Context(), c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no render job"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobId": job.JobID, "status": job.Status, "logs": job.Logs, "artifactKey": job.ArtifactKey})
}

func (h *Handler) RenderCancel(c *gin.Context) {
	if h.renders == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "render pipeline not configured"})
		return
	}
	job := h.renders.Cancel(c.Request.Context(), c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no running render job"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobId": job.JobID, "status": job.Status})
}

// CheckLinks probes every absolute link in the post body. This is the only
// endpoint that touches the network for content reasons.
func (h *Handler) CheckLinks(c *gin.Context) {
	if h.checker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "link checker not configured"})
		return
	}
	p, err := h.svc.Get(c.Param("id"))
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	results := h.checker.CheckBody(c.Request.Context(), p.Body)
	c.JSON(http.StatusOK, gin.H{
		"postId":  p.ID,
		"checked": len(results),
		"broken":  len(linkcheck.Broken(results)),
		"results": results,
	})
}

// Page serves the rendered HTML for a published post on its permalink.
func (h *Handler) Page(c *gin.Context) {
	p, err := h.svc.GetBySlug(c.Param("slug"))
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	want := "/" + c.Param("year") + "/" + c.Param("month") + "/" + c.Param("day") + "/" + p.Slug
	if !p.Published() || p.PermalinkPath() != want {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	key := render.SourceKey(p.Source())
	if html, ok := h.cache.Get(c.Request.Context(), key); ok {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, html)
		return
	}
	html, err := post.RenderPage(p)
	if err != nil {
		metrics.PageRenders.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	metrics.PageRenders.WithLabelValues("ok").Inc()
	_ = h.cache.Put(c.Request.Context(), key, html)
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

// Feed serves the RSS feed of published posts, newest first.
func (h *Handler) Feed(c *gin.Context) {
	posts, err := h.svc.ListPublished()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	xml, err := feed.Build(h.site.Title, h.site.BaseURL, h.site.Description, posts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feed build failed"})
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", xml)
}

func writeServiceErr(c *gin.Context, err error) {
	var invalid *service.ErrInvalidSource
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid post source", "violations": invalid.Violations})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrSlugConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "slug already in use"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
