// Standalone posts-only service: the post API without auth, assets or
// metrics. Useful for local authoring and tests.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/internal/database"
	"github.com/inkpress/inkpress/internal/linkcheck"
	"github.com/inkpress/inkpress/internal/post/handler"
	"github.com/inkpress/inkpress/internal/post/service"
	"github.com/inkpress/inkpress/internal/render"
)

func main() {
	port := os.Getenv("POSTS_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Mongo-backed when MONGODB_URI is set, in-memory otherwise.
	var svc service.Service
	var store render.Store
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		client, err := database.ConnectMongo(context.Background(), uri, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v), using memory-backed repo", err)
			svc = service.NewMemoryService()
			store = render.NewMemoryStore()
		} else {
			db := client.Database(os.Getenv("MONGODB_DATABASE"))
			svc = service.NewMongoService(db.Collection("posts"))
			store = render.NewMongoStore(db.Collection("render_jobs"))
		}
	} else {
		svc = service.NewMemoryService()
		store = render.NewMemoryStore()
	}

	cache := render.NewCache(nil, "", 0)
	mgr := render.NewManager(store, nil, cache)
	checker := linkcheck.NewChecker(nil, 5*time.Second)
	site := handler.Site{Title: "inkpress", BaseURL: "http://localhost:" + port}
	handler.New(svc, mgr, cache, checker, site).Register(r, nil)

	log.Printf("posts service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
