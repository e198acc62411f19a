package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// UploadedImage is an image reference that now points at the weblog.
type UploadedImage struct {
	Src    string `json:"src"`
	URL    string `json:"url"`
	Reused bool   `json:"reused"`
}

// SkippedImage is a local image reference that was left as is.
type SkippedImage struct {
	Src    string `json:"src"`
	Reason string `json:"reason"`
}

// MediaReport lists what happened to each local image of a post.
type MediaReport struct {
	Uploaded []UploadedImage `json:"uploaded"`
	Skipped  []SkippedImage  `json:"skipped"`
}

// MediaUploader sends the local images referenced by a post's HTML to the weblog.
type MediaUploader struct {
	media domain.MediaRepository
	now   func() time.Time
}

// NewMediaUploader creates an uploader. media may be nil, in which case nothing is remembered between publishes.
func NewMediaUploader(media domain.MediaRepository) *MediaUploader {
	return &MediaUploader{
		media: media,
		now:   time.Now,
	}
}

// UploadImages uploads every local <img src> in body and rewrites it to the returned URL.
// Images that cannot be read or uploaded are reported as skipped and keep their original src.
// With reupload set, previously recorded uploads are forgotten and every image is sent again.
func (u *MediaUploader) UploadImages(ctx context.Context, body []byte, documentPath string, weblog domain.Weblog, client domain.PublishClient, reupload bool) ([]byte, MediaReport, error) {
	report := MediaReport{
		Uploaded: make([]UploadedImage, 0),
		Skipped:  make([]SkippedImage, 0),
	}

	doc, err := parseFragment(body)
	if err != nil {
		return nil, report, fmt.Errorf("%w: failed to parse rendered HTML: %v", domain.ErrRender, err)
	}

	baseDir := filepath.Dir(documentPath)
	rewritten := make(map[string]string)
	changed := false

	var uploadErr error
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if err := ctx.Err(); err != nil {
			uploadErr = err
			return false
		}

		src, _ := img.Attr("src")
		if !isLocalImage(src) {
			return true
		}

		// each distinct src is handled once; "" marks one that was skipped
		if remote, ok := rewritten[src]; ok {
			if remote != "" {
				img.SetAttr("src", remote)
			}
			return true
		}

		uploaded, reason := u.uploadImage(ctx, src, baseDir, weblog, client, reupload)
		if reason != "" {
			log.Warn().Str("src", src).Str("weblog", weblog.Name).Str("reason", reason).Msg("Skipping image")
			report.Skipped = append(report.Skipped, SkippedImage{Src: src, Reason: reason})
			rewritten[src] = ""
			return true
		}

		rewritten[src] = uploaded.URL
		img.SetAttr("src", uploaded.URL)
		report.Uploaded = append(report.Uploaded, *uploaded)
		changed = true
		return true
	})
	if uploadErr != nil {
		return nil, report, uploadErr
	}

	if !changed {
		return body, report, nil
	}

	out, err := doc.Selection.Html()
	if err != nil {
		return nil, report, fmt.Errorf("%w: failed to write rewritten HTML: %v", domain.ErrRender, err)
	}
	return []byte(out), report, nil
}

// uploadImage returns the uploaded image, or a reason it was skipped.
func (u *MediaUploader) uploadImage(ctx context.Context, src string, baseDir string, weblog domain.Weblog, client domain.PublishClient, reupload bool) (*UploadedImage, string) {
	localPath := resolveImagePath(src, baseDir)

	bits, err := os.ReadFile(localPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "file not found"
		}
		return nil, fmt.Sprintf("failed to read file: %v", err)
	}

	sum := sha256.Sum256(bits)
	hash := hex.EncodeToString(sum[:])

	if reupload {
		u.forget(ctx, weblog.Name, hash)
	} else if known := u.lookup(ctx, weblog.Name, hash); known != nil {
		return &UploadedImage{Src: src, URL: known.URL, Reused: true}, ""
	}

	media := &domain.MediaObject{
		Name:     mediaName(baseDir, localPath),
		MimeType: mimetype.Detect(bits).String(),
		Bits:     bits,
	}

	result, err := client.UploadMedia(ctx, media)
	if err != nil {
		return nil, fmt.Sprintf("upload failed: %v", err)
	}
	if result == nil || result.URL == "" {
		return nil, "upload returned no URL"
	}

	u.remember(ctx, &domain.UploadedMedia{
		Weblog:    weblog.Name,
		Hash:      hash,
		Path:      media.Name,
		URL:       result.URL,
		CreatedAt: u.now().UTC(),
	})

	return &UploadedImage{Src: src, URL: result.URL}, ""
}

func (u *MediaUploader) lookup(ctx context.Context, weblog, hash string) *domain.UploadedMedia {
	if u.media == nil {
		return nil
	}

	known, err := u.media.GetMedia(ctx, weblog, hash)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("hash", hash).Msg("Failed to look up uploaded media")
		}
		return nil
	}
	return known
}

// forget drops the recorded upload so a URL the weblog no longer serves is not reused.
func (u *MediaUploader) forget(ctx context.Context, weblog, hash string) {
	if u.media == nil {
		return
	}
	if err := u.media.DeleteMedia(ctx, weblog, hash); err != nil {
		log.Warn().Err(err).Str("hash", hash).Msg("Failed to forget uploaded media")
	}
}

func (u *MediaUploader) remember(ctx context.Context, m *domain.UploadedMedia) {
	if u.media == nil {
		return
	}
	if err := u.media.SaveMedia(ctx, m); err != nil {
		log.Warn().Err(err).Str("path", m.Path).Msg("Failed to record uploaded media")
	}
}

func parseFragment(body []byte) (*goquery.Document, error) {
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(body), root)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// isLocalImage reports whether src refers to a file next to the document rather than a URL.
func isLocalImage(src string) bool {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "//") {
		return false
	}
	u, err := url.Parse(src)
	if err != nil {
		return true
	}
	// single-letter schemes are Windows drive letters
	return u.Scheme == "" || len(u.Scheme) == 1
}

func resolveImagePath(src string, baseDir string) string {
	if unescaped, err := url.PathUnescape(src); err == nil {
		src = unescaped
	}
	p := filepath.FromSlash(src)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// mediaName is "<document directory name>/<file name>", which keeps uploads from different posts apart.
func mediaName(baseDir string, localPath string) string {
	dir := filepath.Base(baseDir)
	if dir == "." || dir == string(filepath.Separator) || dir == "" {
		return filepath.Base(localPath)
	}
	return dir + "/" + filepath.Base(localPath)
}
