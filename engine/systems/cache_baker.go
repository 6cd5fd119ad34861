package systems

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/g2d"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// CacheItem is one region placed in a baked cache.
type CacheItem struct {
	Region *g2d.TextureRegion
	Quad   g2d.Quad
	Color  math.Color
}

type BakeRequest struct {
	// Name identifies the cache; baking the same name again redefines it.
	Name  string
	Items []CacheItem
	// Done runs during JobSystem.Update with the cache id. A bake that
	// overflows the store reports the error together with the id of the
	// partially filled cache.
	Done func(id int, err error)
}

type bakeResult struct {
	name string
	runs []GlyphRun
}

/**
 * @brief Packs static geometry on the job system and stores it in the
 * sprite cache once the job completes.
 */
type CacheBaker struct {
	cache *g2d.SpriteCache
	jobs  *JobSystem
	baked map[string]int
}

func NewCacheBaker(cache *g2d.SpriteCache, jobs *JobSystem) (*CacheBaker, error) {
	if cache == nil || jobs == nil {
		return nil, fmt.Errorf("cache baker requires a sprite cache and a job system: %w", core.ErrInvalidArgument)
	}
	return &CacheBaker{
		cache: cache,
		jobs:  jobs,
		baked: make(map[string]int),
	}, nil
}

// CacheID returns the cache id of a finished bake.
func (cb *CacheBaker) CacheID(name string) (int, bool) {
	id, ok := cb.baked[name]
	return id, ok
}

// Bake queues a request. The items are copied before the job starts.
func (cb *CacheBaker) Bake(req BakeRequest) error {
	if req.Name == "" {
		return fmt.Errorf("bake request without a name: %w", core.ErrInvalidArgument)
	}
	for i, item := range req.Items {
		if item.Region == nil || item.Region.Texture == nil {
			return fmt.Errorf("bake '%s' item %d: %w", req.Name, i, core.ErrNilTexture)
		}
	}
	items := append([]CacheItem(nil), req.Items...)
	done := req.Done
	if done == nil {
		done = func(int, error) {}
	}

	return cb.jobs.Submit(metadata.JobTask{
		Priority:    metadata.JOB_PRIORITY_LOW,
		InputParams: items,
		OnStart: func(params interface{}, out chan<- interface{}) error {
			out <- &bakeResult{name: req.Name, runs: packItems(params.([]CacheItem))}
			return nil
		},
		OnComplete: func(result interface{}) {
			id, err := cb.store(result.(*bakeResult))
			if err != nil {
				core.LogError("bake '%s' failed: %s", req.Name, err)
			}
			done(id, err)
		},
		OnFailure: func(err error) {
			done(-1, err)
		},
	})
}

// packItems groups consecutive items sharing a texture into one run.
func packItems(items []CacheItem) []GlyphRun {
	var runs []GlyphRun
	for _, item := range items {
		texture := item.Region.Texture
		if len(runs) == 0 || runs[len(runs)-1].Texture != texture {
			runs = append(runs, GlyphRun{Texture: texture})
		}
		run := &runs[len(runs)-1]
		start := len(run.Vertices)
		run.Vertices = append(run.Vertices, make([]float32, g2d.QuadSize)...)
		r := item.Region
		g2d.PackQuad(run.Vertices[start:], item.Quad, item.Color.ToFloatBits(), r.U, r.V2, r.U2, r.V)
	}
	return runs
}

func (cb *CacheBaker) store(result *bakeResult) (int, error) {
	var err error
	if id, ok := cb.baked[result.name]; ok {
		err = cb.cache.BeginCacheID(id)
	} else {
		err = cb.cache.BeginCache()
	}
	if err != nil {
		return -1, err
	}

	for _, run := range result.runs {
		if err := cb.cache.AddVertices(run.Texture, run.Vertices, 0, len(run.Vertices)); err != nil {
			// the cache keeps the runs that fit; remember it so a retry
			// redefines it instead of opening another one
			id, endErr := cb.cache.EndCache()
			if endErr != nil {
				core.LogWarn("bake '%s': %s", result.name, endErr)
				return -1, err
			}
			cb.baked[result.name] = id
			return id, err
		}
	}
	id, err := cb.cache.EndCache()
	if err != nil {
		return -1, err
	}
	cb.baked[result.name] = id
	core.LogDebug("baked cache '%s' as id %d (%d runs)", result.name, id, len(result.runs))
	return id, nil
}
