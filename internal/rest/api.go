package rest

import (
	"context"

	"github.com/dfryer1193/weblog/blog/application"
	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/gin-gonic/gin"
)

// Publisher is the part of the publish service the API exposes.
type Publisher interface {
	Publish(ctx context.Context, documentPath string, opts application.PublishOptions) (*application.PublishResult, error)
	RenderDocument(text string) (*application.RenderedDocument, error)
	Weblogs() []string
	History(ctx context.Context, documentPath string, limit, offset int) ([]*domain.Publication, error)
	LastPublication(ctx context.Context, documentPath string) (*domain.Publication, error)
}

type handlers struct {
	publisher Publisher
}

func NewApi(router *gin.Engine, publisher Publisher) {
	h := &handlers{publisher: publisher}

	documents := router.Group("documents")
	{
		documents.POST("/new", NewDocument)
		documents.POST("/parse", ParseDocument)
		documents.POST("/apply", ApplyMetadata)
		documents.POST("/render", h.RenderDocument)
	}

	router.POST("/publish", h.Publish)
	router.GET("/weblogs", h.GetWeblogs)
	router.GET("/publications", h.GetPublications)
	router.GET("/publications/latest", h.GetLatestPublication)
}
