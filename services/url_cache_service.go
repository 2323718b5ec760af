package services

import (
	"context"
	"fmt"
	"time"

	"virtualwardrobe/logging"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
)

type ReadURLPresigner interface {
	PresignRead(ctx context.Context, key string) (string, error)
}

type URLCacheServiceProvider interface {
	GetReadURL(ctx context.Context, objectKey string) (string, error)
}

// URLCacheService memoizes presigned read URLs. Entries expire before the URL
// itself does.
type URLCacheService struct {
	cache *cache.LoadableCache[string]
}

func NewURLCacheService(presigner ReadURLPresigner, presignTTL time.Duration, logger logging.Logger) (*URLCacheService, error) {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     1 << 26,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)

	expiration := presignTTL * 4 / 5
	loadFunction := func(ctx context.Context, key any) (string, []store.Option, error) {
		objectKey, ok := key.(string)
		if !ok {
			return "", nil, fmt.Errorf("invalid key type provided to URL cache: expected string, got %T", key)
		}
		logger.Debug("presigned url cache miss", logging.Fields{"key": objectKey})
		url, err := presigner.PresignRead(ctx, objectKey)
		return url, []store.Option{store.WithExpiration(expiration), store.WithCost(int64(len(url)))}, err
	}

	return &URLCacheService{
		cache: cache.NewLoadable[string](loadFunction, cache.New[string](ristrettoStore)),
	}, nil
}

func (s *URLCacheService) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	return s.cache.Get(ctx, objectKey)
}

// ItemImageURL returns a readable URL for an image stored under key, or the
// legacy URL recorded on rows that predate object keys.
func ItemImageURL(ctx context.Context, urls URLCacheServiceProvider, key string, legacy *string) (string, error) {
	if key != "" && urls != nil {
		return urls.GetReadURL(ctx, key)
	}
	if legacy != nil {
		return *legacy, nil
	}
	return "", nil
}
