package rest

import (
	"net/http"

	"github.com/dfryer1193/weblog/api"
	"github.com/dfryer1193/weblog/blog/metadata"
	"github.com/gin-gonic/gin"
)

func NewDocument(c *gin.Context) {
	req := &api.NewDocumentRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	doc := metadata.Parse(metadata.NewPostDocument(req.Title, req.Weblog))
	c.JSON(http.StatusOK, api.NewDocumentResponse(doc))
}

func ParseDocument(c *gin.Context) {
	req := &api.DocumentRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.NewDocumentResponse(metadata.Parse(req.Text)))
}

func ApplyMetadata(c *gin.Context) {
	req := &api.ApplyRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	// an omitted id must not detach the document from its remote post
	if req.Metadata.PostID == 0 {
		req.Metadata.PostID = metadata.Parse(req.Text).Metadata.PostID
	}

	doc, err := metadata.Apply(req.Text, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewDocumentResponse(doc))
}

func (h *handlers) RenderDocument(c *gin.Context) {
	req := &api.DocumentRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	rendered, err := h.publisher.RenderDocument(req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rendered)
}
