package workers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const maxPhotoSize = 20 * 1024 * 1024

// Uploader stores an object in S3-compatible storage.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
}

// PhotoArchiver downloads listing photos and stores them content-addressed,
// so the same image seen on several portals is kept once.
type PhotoArchiver struct {
	client    *http.Client
	uploader  Uploader
	userAgent string
}

func NewPhotoArchiver(client *http.Client, uploader Uploader, userAgent string) *PhotoArchiver {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &PhotoArchiver{client: client, uploader: uploader, userAgent: userAgent}
}

// PhotoResult is the outcome of archiving one photo.
type PhotoResult struct {
	URL         string
	Key         string
	ContentHash string
	Size        int64
}

// Archive downloads photoURL, hashes it and uploads it under
// media/{hash prefix}/{hash}{ext}.
func (a *PhotoArchiver) Archive(ctx context.Context, photoURL string) (*PhotoResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "image/*,*/*")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status: %d", resp.StatusCode)
	}
	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("not an image: %s", contentType)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	hash := sha256.Sum256(data)
	result := &PhotoResult{
		URL:         photoURL,
		ContentHash: hex.EncodeToString(hash[:]),
		Size:        int64(len(data)),
	}
	result.Key = fmt.Sprintf("media/%s/%s%s", result.ContentHash[:2], result.ContentHash, guessExtension(photoURL, contentType))

	if err := a.uploader.Upload(ctx, result.Key, bytes.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return result, nil
}

// guessExtension determines file extension from URL or content-type
func guessExtension(rawURL, contentType string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if isImageExt(ext) {
		return ext
	}

	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff":
		return true
	}
	return false
}
