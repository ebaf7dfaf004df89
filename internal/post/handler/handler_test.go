package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/post/service"
)

const articleSource = `---
layout: post
title: "Deep Learning with MXNetR"
date: 2015-11-03 00:00:00 -0800
author: Qiang Kou
categories: [rstats, deep-learning]
comments: true
---

[MXNet](https://github.com/dmlc/mxnet) is a deep learning framework.

## Train your first neural network in five minutes

` + "```r\nrequire(mxnet)\n```" + `

## Handwritten Digits Classification Competition

Prose about MNIST.

## Classify Real-World Images with Pre-trained Model

Prose about Inception.
`

func setupRouter() (*gin.Engine, service.Service) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := service.NewMemoryService()
	h := New(svc, nil, nil, nil, Site{
		Title:       "inkpress",
		BaseURL:     "http://blog.example.com",
		Description: "engineering notes",
	})
	h.Register(r, nil)
	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetPost(t *testing.T) {
	r, _ := setupRouter()

	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": articleSource})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID        string `json:"id"`
		Slug      string `json:"slug"`
		Permalink string `json:"permalink"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "deep-learning-with-mxnetr", created.Slug)
	require.Equal(t, "/2015/11/03/deep-learning-with-mxnetr", created.Permalink)

	w = doJSON(t, r, http.MethodGet, "/api/posts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "deep-learning-with-mxnetr", got["slug"])
	require.Contains(t, got["source"], "title: \"Deep Learning with MXNetR\"")
}

func TestCreate_InvalidSourceReturns422(t *testing.T) {
	r, _ := setupRouter()

	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": "---\ntitle: t\n---\nbody\n"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Violations []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Violations)
}

func TestCreate_MissingBodyReturns400(t *testing.T) {
	r, _ := setupRouter()
	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_NewestFirstWithMetadataOnly(t *testing.T) {
	r, _ := setupRouter()
	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": articleSource})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "Deep Learning with MXNetR", list[0]["title"])
	require.NotContains(t, list[0], "body")
}

func TestPage_ServesPublishedPermalink(t *testing.T) {
	r, _ := setupRouter()
	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": articleSource})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/posts/2015/11/03/deep-learning-with-mxnetr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")

	html := w.Body.String()
	require.Contains(t, html, "<title>Deep Learning with MXNetR</title>")
	i := strings.Index(html, "Train your first neural network in five minutes")
	j := strings.Index(html, "Handwritten Digits Classification Competition")
	k := strings.Index(html, "Classify Real-World Images with Pre-trained Model")
	require.True(t, i >= 0 && i < j && j < k)
}

func TestPage_WrongDateSegmentIs404(t *testing.T) {
	r, _ := setupRouter()
	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": articleSource})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/posts/2016/01/01/deep-learning-with-mxnetr", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPage_DraftIs404(t *testing.T) {
	r, _ := setupRouter()
	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": articleSource, "draft": true})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/posts/2015/11/03/deep-learning-with-mxnetr", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublishThenPageIsServed(t *testing.T) {
	r, _ := setupRouter()
	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": articleSource, "draft": true})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPost, "/api/posts/"+created.ID+"/publish", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/posts/2015/11/03/deep-learning-with-mxnetr", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	r, _ := setupRouter()
	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": articleSource})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	edited := strings.Replace(articleSource, "Prose about MNIST.", "Prose about MNIST, revised.", 1)
	w = doJSON(t, r, http.MethodPatch, "/api/posts/"+created.ID, gin.H{"source": edited})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/posts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "revised")

	w = doJSON(t, r, http.MethodDelete, "/api/posts/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/posts/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRender_UnconfiguredPipelineIs503(t *testing.T) {
	r, _ := setupRouter()
	w := doJSON(t, r, http.MethodPost, "/api/posts/whatever/render", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFeed(t *testing.T) {
	r, _ := setupRouter()
	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": articleSource})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/feed.xml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/rss+xml")

	body := w.Body.String()
	require.Contains(t, body, "<rss")
	require.Contains(t, body, "<title>Deep Learning with MXNetR</title>")
	require.Contains(t, body, "http://blog.example.com/2015/11/03/deep-learning-with-mxnetr")
}

func TestAuthGuardBlocksWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := service.NewMemoryService()
	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	New(svc, nil, nil, nil, Site{Title: "t", BaseURL: "http://x"}).Register(r, deny)

	w := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{"source": articleSource})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// reads stay open
	w = doJSON(t, r, http.MethodGet, "/api/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
