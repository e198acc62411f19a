package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dfryer1193/weblog/api"
	"github.com/dfryer1193/weblog/blog/application"
	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/dfryer1193/weblog/blog/metadata"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type publishResponse struct {
	*application.PublishResult
	Warning string `json:"warning,omitempty"`
}

func (h *handlers) Publish(c *gin.Context) {
	req := &api.PublishRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.publisher.Publish(c.Request.Context(), req.Path, application.PublishOptions{Reupload: req.Reupload})
	if err != nil && result == nil {
		writeError(c, err)
		return
	}

	// the post went out but the document could not be updated
	resp := publishResponse{PublishResult: result}
	if err != nil {
		resp.Warning = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) GetWeblogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.publisher.Weblogs())
}

func (h *handlers) GetPublications(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	publications, err := h.publisher.History(c.Request.Context(), c.Query("path"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]api.Publication, 0, len(publications))
	for _, p := range publications {
		resp = append(resp, api.NewPublication(p))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) GetLatestPublication(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "path is required"})
		return
	}

	p, err := h.publisher.LastPublication(c.Request.Context(), path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewPublication(p))
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownWeblog):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPublishInProgress),
		errors.Is(err, metadata.ErrDuplicateBlock),
		errors.Is(err, metadata.ErrConcurrentEdit):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDocument),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPublishFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := errorStatus(err)
	resp := api.ErrorResponse{Error: err.Error()}

	var pubErr *application.PublishError
	if errors.As(err, &pubErr) {
		resp.Stage = pubErr.Stage.String()
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("Request failed")
	}
	c.JSON(status, resp)
}
