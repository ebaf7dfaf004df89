package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>inkpress API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document for the posts API.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "inkpress", "version": "v0.1.0" },
  "paths": {
    "/api/posts": {
      "get": { "summary": "List posts (metadata only, newest first)", "responses": { "200": { "description": "post listing" } } },
      "post": {
        "summary": "Create a post from a front-matter + markdown source",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"source":{"type":"string"},"draft":{"type":"boolean"}},"required":["source"]}}}},
        "responses": { "201": { "description": "created" }, "409": { "description": "slug conflict" }, "422": { "description": "structural violations" } }
      }
    },
    "/api/posts/{id}": {
      "get": { "summary": "Get a post including its canonical source", "responses": { "200": { "description": "post" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Replace the post source", "responses": { "200": { "description": "updated" }, "422": { "description": "structural violations" } } },
      "delete": { "summary": "Delete a post", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/posts/{id}/publish": { "post": { "summary": "Clear the draft flag and queue a render", "responses": { "200": { "description": "published" } } } },
    "/api/posts/{id}/render": { "post": { "summary": "Queue an asynchronous render job", "responses": { "202": { "description": "job queued" } } } },
    "/api/posts/{id}/render/logs": { "get": { "summary": "Latest render job status and logs", "responses": { "200": { "description": "job" }, "404": { "description": "no job" } } } },
    "/api/posts/{id}/render/cancel": { "post": { "summary": "Cancel a queued or running render job", "responses": { "200": { "description": "canceled" }, "404": { "description": "no running job" } } } },
    "/api/posts/{id}/links/check": { "post": { "summary": "Probe every absolute link in the post body", "responses": { "200": { "description": "link results" } } } },
    "/posts/{year}/{month}/{day}/{slug}": { "get": { "summary": "Rendered HTML page for a published post", "responses": { "200": { "description": "HTML page" }, "404": { "description": "not found" } } } },
    "/feed.xml": { "get": { "summary": "RSS 2.0 feed of published posts", "responses": { "200": { "description": "feed" } } } },
    "/auth/login": { "post": { "summary": "Login (password or auth_code)", "responses": { "200": { "description": "tokens" } } } },
    "/auth/refresh": { "post": { "summary": "Refresh access token", "responses": { "200": { "description": "new access token" } } } },
    "/auth/logout": { "post": { "summary": "Logout and invalidate refresh token", "responses": { "200": { "description": "logged out" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
