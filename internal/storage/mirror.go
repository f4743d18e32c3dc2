package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"github.com/go-resty/resty/v2"

	"stayscout/internal/logger"
)

// Mirror copies scraped image URLs into object storage and rewrites them to
// the bucket's public URLs. Mirroring is best effort per image: an image that
// cannot be fetched or uploaded keeps its original URL so a record never
// loses data over storage trouble.
type Mirror struct {
	storage ObjectStorage
	client  *resty.Client
	prefix  string
}

// NewMirror creates an image mirror on top of storage. prefix namespaces the
// object keys inside the bucket.
func NewMirror(storage ObjectStorage, prefix string) *Mirror {
	return &Mirror{
		storage: storage,
		client:  resty.New(),
		prefix:  strings.Trim(prefix, "/"),
	}
}

// MirrorAll mirrors every URL, preserving order. The output always has the
// same length as the input.
func (m *Mirror) MirrorAll(ctx context.Context, urls []string) []string {
	out := make([]string, len(urls))
	for i, url := range urls {
		out[i] = m.mirrorOne(ctx, url)
	}
	return out
}

func (m *Mirror) mirrorOne(ctx context.Context, url string) string {
	log := logger.FromContext(ctx).WithField(logger.FieldURL, url)

	key := m.objectKey(url)
	if exists, err := m.storage.Exists(ctx, key); err == nil && exists {
		return m.storage.GetURL(key)
	}

	resp, err := m.client.R().SetContext(ctx).Get(url)
	if err != nil || resp.StatusCode() != 200 {
		log.Warn("failed to download image, keeping source URL")
		return url
	}
	body := resp.Body()
	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if err := m.storage.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
		log.WithError(err).Warn("failed to upload image, keeping source URL")
		return url
	}
	return m.storage.GetURL(key)
}

// objectKey derives a stable key from the source URL so re-scraping the same
// hotel reuses the stored object instead of duplicating it.
func (m *Mirror) objectKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	name := hex.EncodeToString(sum[:16])
	if ext := path.Ext(strings.SplitN(path.Base(url), "?", 2)[0]); ext != "" && len(ext) <= 5 {
		name += ext
	}
	if m.prefix == "" {
		return name
	}
	return m.prefix + "/" + name
}
