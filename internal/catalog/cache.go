package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	cacheExpireSeconds = 300
	listCacheKey       = "definitions::all"
)

type catalogRepo interface {
	Add(ctx context.Context, def ExerciseDefinition) (*ExerciseDefinition, error)
	Get(ctx context.Context, id int) (*ExerciseDefinition, error)
	List(ctx context.Context) ([]ExerciseDefinition, error)
	Update(ctx context.Context, def *ExerciseDefinition) error
	Delete(ctx context.Context, id int) error
}

var _ catalogRepo = (*CachedRepo)(nil)

// CachedRepo fronts the catalog repo with an in-process freecache
// layer. Reads hit the cache, writes invalidate it.
type CachedRepo struct {
	repo  catalogRepo
	cache *freecache.Cache
}

func NewCachedRepo(repo catalogRepo, cacheSizeMegabytes int) *CachedRepo {
	megabyte := 1024 * 1024
	return &CachedRepo{
		repo:  repo,
		cache: freecache.NewCache(cacheSizeMegabytes * megabyte),
	}
}

func (c *CachedRepo) Add(ctx context.Context, def ExerciseDefinition) (*ExerciseDefinition, error) {
	added, err := c.repo.Add(ctx, def)
	if err != nil {
		return nil, err
	}
	c.cache.Del([]byte(listCacheKey))
	return added, nil
}

func (c *CachedRepo) Get(ctx context.Context, id int) (*ExerciseDefinition, error) {
	cacheKey := definitionCacheKey(id)
	if cachedBytes, err := c.cache.Get(cacheKey); err == nil {
		var def ExerciseDefinition
		if err := json.Unmarshal(cachedBytes, &def); err == nil {
			log.Tracef("definition %d found in cache", id)
			return &def, nil
		}
		log.Errorf("failed to unmarshal cached definition %d: %s", id, err)
	}

	def, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if defBytes, err := json.Marshal(def); err == nil {
		if err := c.cache.Set(cacheKey, defBytes, cacheExpireSeconds); err != nil {
			log.Errorf("failed to set definition cache for %d: %s", id, err)
		}
	}

	return def, nil
}

func (c *CachedRepo) List(ctx context.Context) ([]ExerciseDefinition, error) {
	if cachedBytes, err := c.cache.Get([]byte(listCacheKey)); err == nil {
		var defs []ExerciseDefinition
		if err := json.Unmarshal(cachedBytes, &defs); err == nil {
			log.Tracef("definitions list found in cache, %d entries", len(defs))
			return defs, nil
		}
		log.Errorf("failed to unmarshal cached definitions list: %s", err)
	}

	defs, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if defsBytes, err := json.Marshal(defs); err == nil {
		if err := c.cache.Set([]byte(listCacheKey), defsBytes, cacheExpireSeconds); err != nil {
			log.Errorf("failed to set definitions list cache: %s", err)
		}
	}

	return defs, nil
}

func (c *CachedRepo) Update(ctx context.Context, def *ExerciseDefinition) error {
	if err := c.repo.Update(ctx, def); err != nil {
		return err
	}
	c.cache.Del(definitionCacheKey(def.ID))
	c.cache.Del([]byte(listCacheKey))
	return nil
}

func (c *CachedRepo) Delete(ctx context.Context, id int) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.cache.Del(definitionCacheKey(id))
	c.cache.Del([]byte(listCacheKey))
	return nil
}

func definitionCacheKey(id int) []byte {
	return []byte(fmt.Sprintf("definition::%d", id))
}
