package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
}

// ObjectStore is the blob storage holding wardrobe images.
type ObjectStore interface {
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	Delete(ctx context.Context, key string) error
	PresignRead(ctx context.Context, key string) (string, error)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ItemObjectKey builds wardrobe/<uid>/<unixMillis>_<name>.<ext>. The extension
// comes from the MIME subtype and falls back to jpg.
func ItemObjectKey(userID, originalName, contentType string, now time.Time) string {
	base := strings.TrimSuffix(originalName, extensionOf(originalName))
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf(
		"wardrobe/%s/%d_%s.%s",
		userID, now.UnixMilli(), nonAlphanumeric.ReplaceAllString(base, "_"), subtypeExtension(contentType),
	)
}

func extensionOf(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[i:]
	}
	return ""
}

func subtypeExtension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "jpg"
	}
	_, subtype, ok := strings.Cut(mediaType, "/")
	if !ok || subtype == "" || nonAlphanumeric.MatchString(subtype) {
		return "jpg"
	}
	if subtype == "jpeg" {
		return "jpg"
	}
	return subtype
}
