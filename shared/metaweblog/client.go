// Package metaweblog publishes posts to blogs that speak the MetaWeblog XML-RPC API.
package metaweblog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/rpc"
	"strconv"
	"time"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/kolo/xmlrpc"
)

var _ domain.PublishClient = (*Client)(nil)

// Client is an implementation of domain.PublishClient for a single weblog.
type Client struct {
	rpc      *xmlrpc.Client
	blogID   string
	username string
	password string
}

// post is the MetaWeblog post struct.
type post struct {
	Title       string    `xmlrpc:"title"`
	Description string    `xmlrpc:"description"`
	Categories  []string  `xmlrpc:"categories"`
	Excerpt     string    `xmlrpc:"mt_excerpt"`
	Keywords    string    `xmlrpc:"mt_keywords"`
	DateCreated time.Time `xmlrpc:"dateCreated"`
}

type mediaObject struct {
	Name string `xmlrpc:"name"`
	Type string `xmlrpc:"type"`
	Bits []byte `xmlrpc:"bits"`
}

// NewClient connects to weblog's API endpoint. A nil transport uses http.DefaultTransport.
func NewClient(weblog domain.Weblog, transport http.RoundTripper) (*Client, error) {
	rpcClient, err := xmlrpc.NewClient(weblog.APIURL, transport)
	if err != nil {
		return nil, fmt.Errorf("metaweblog: failed to create client for %s: %w", weblog.APIURL, err)
	}

	return &Client{
		rpc:      rpcClient,
		blogID:   weblog.BlogID,
		username: weblog.Username,
		password: weblog.Password,
	}, nil
}

// NewClientFactory returns a constructor usable as the publish flow's client factory.
func NewClientFactory(transport http.RoundTripper) func(domain.Weblog) (domain.PublishClient, error) {
	return func(weblog domain.Weblog) (domain.PublishClient, error) {
		return NewClient(weblog, transport)
	}
}

func toPost(p *domain.Post) post {
	categories := p.Categories
	if categories == nil {
		categories = []string{}
	}
	return post{
		Title:       p.Title,
		Description: p.Body,
		Categories:  categories,
		Excerpt:     p.Excerpt,
		Keywords:    p.Keywords,
		DateCreated: p.DateCreated,
	}
}

// CreatePost calls metaWeblog.newPost and returns the new post's id.
func (c *Client) CreatePost(ctx context.Context, p *domain.Post, publish bool) (int, error) {
	op := "metaWeblog.newPost"
	var reply interface{}
	err := c.call(ctx, op, []interface{}{c.blogID, c.username, c.password, toPost(p), publish}, &reply)
	if err != nil {
		return 0, handleRPCError(op, err)
	}

	id, err := parsePostID(reply)
	if err != nil {
		return 0, fmt.Errorf("metaweblog: %s returned %w", op, err)
	}
	return id, nil
}

// UpdatePost calls metaWeblog.editPost for p.PostID.
func (c *Client) UpdatePost(ctx context.Context, p *domain.Post, publish bool) (bool, error) {
	op := fmt.Sprintf("metaWeblog.editPost %d", p.PostID)
	var ok bool
	err := c.call(ctx, "metaWeblog.editPost", []interface{}{strconv.Itoa(p.PostID), c.username, c.password, toPost(p), publish}, &ok)
	if err != nil {
		return false, handleRPCError(op, err)
	}
	return ok, nil
}

// UploadMedia calls metaWeblog.newMediaObject and returns where the weblog stored the file.
func (c *Client) UploadMedia(ctx context.Context, media *domain.MediaObject) (*domain.MediaResult, error) {
	op := fmt.Sprintf("metaWeblog.newMediaObject %s", media.Name)
	obj := mediaObject{
		Name: media.Name,
		Type: media.MimeType,
		Bits: media.Bits,
	}

	var reply map[string]interface{}
	err := c.call(ctx, "metaWeblog.newMediaObject", []interface{}{c.blogID, c.username, c.password, obj}, &reply)
	if err != nil {
		return nil, handleRPCError(op, err)
	}

	url, _ := reply["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("metaweblog: %s returned no url", op)
	}
	return &domain.MediaResult{URL: url}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}

// call runs method asynchronously so ctx can abandon a slow server.
func (c *Client) call(ctx context.Context, method string, args []interface{}, reply interface{}) error {
	call := c.rpc.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case done := <-call.Done:
		return done.Error
	}
}

// parsePostID accepts both the string ids WordPress returns and plain integers.
func parsePostID(reply interface{}) (int, error) {
	var id int
	switch v := reply.(type) {
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("non-numeric post id %q", v)
		}
		id = n
	case int64:
		id = int(v)
	case int:
		id = v
	default:
		return 0, fmt.Errorf("unexpected post id type %T", reply)
	}

	if id <= 0 {
		return 0, fmt.Errorf("invalid post id %d", id)
	}
	return id, nil
}

// handleRPCError turns a failed call into an error that names the operation and any server fault.
func handleRPCError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("metaweblog: %s abandoned: %w", op, err)
	}

	var serverErr rpc.ServerError
	if errors.As(err, &serverErr) {
		return fmt.Errorf("metaweblog: %s failed: server said %s", op, string(serverErr))
	}

	return fmt.Errorf("metaweblog: %s failed: %w", op, err)
}
