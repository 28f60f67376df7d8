package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coocood/freecache"

	"github.com/roach88/elsatrace/internal/elsa"
	"github.com/roach88/elsatrace/internal/record"
)

const (
	// DefaultCatalogTTL is how long a fetched instance page is served
	// without asking the server again.
	DefaultCatalogTTL = time.Minute

	// freecache skips values over 1/1024 of its size; 32MiB admits 32KiB pages.
	defaultCatalogCacheSize = 32 << 20
)

// InstanceOption is one entry of the instance picker.
type InstanceOption struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	Timestamp *time.Time `json:"timestamp,omitempty"` // updated, else created
	Label     string     `json:"label"`
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// cacheTimer adapts a Clock to freecache's second-resolution timer.
type cacheTimer struct{ clock Clock }

func (t cacheTimer) Now() uint32 { return uint32(t.clock.Now().Unix()) }

// CatalogOptions configures a Catalog. Zero values select defaults.
type CatalogOptions struct {
	TTL       time.Duration
	Clock     Clock
	Location  *time.Location // for labels; UTC when nil
	CacheSize int            // bytes
}

// Catalog lists recent workflow instances for selection. Raw pages are
// cached for TTL so repeated listings within that window stay local.
type Catalog struct {
	src   Source
	cache *freecache.Cache
	ttl   time.Duration
	loc   *time.Location
}

// NewCatalog creates a catalog reading from src.
func NewCatalog(src Source, opts CatalogOptions) *Catalog {
	if opts.TTL <= 0 {
		opts.TTL = DefaultCatalogTTL
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCatalogCacheSize
	}
	return &Catalog{
		src:   src,
		cache: freecache.NewCacheCustomTimer(opts.CacheSize, cacheTimer{opts.Clock}),
		ttl:   opts.TTL,
		loc:   opts.Location,
	}
}

// Options returns the picker entries for one page of instances.
func (c *Catalog) Options(ctx context.Context, page elsa.Page) ([]InstanceOption, error) {
	raw, err := c.page(ctx, page)
	if err != nil {
		return nil, err
	}
	return InstanceOptions(raw, c.loc), nil
}

// Invalidate drops every cached page.
func (c *Catalog) Invalidate() {
	c.cache.Clear()
}

func (c *Catalog) page(ctx context.Context, page elsa.Page) (any, error) {
	key := []byte(fmt.Sprintf("instances:%d:%d", page.Skip, page.Take))

	if cached, err := c.cache.Get(key); err == nil {
		slog.Debug("instance page served from cache", "skip", page.Skip, "take", page.Take)
		return record.Decode(cached)
	} else if !errors.Is(err, freecache.ErrNotFound) {
		return nil, fmt.Errorf("instance cache: %w", err)
	}

	raw, err := c.src.WorkflowInstances(ctx, page)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("instance cache: %w", err)
	}
	if err := c.cache.Set(key, data, expireSeconds(c.ttl)); err != nil {
		// Oversized pages are served uncached.
		slog.Warn("instance page not cached", "error", err, "bytes", len(data))
	}
	return raw, nil
}

// expireSeconds rounds ttl up to whole seconds. freecache reads 0 as never
// expire, so anything positive maps to at least 1.
func expireSeconds(ttl time.Duration) int {
	secs := int((ttl + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// InstanceOptions normalizes a raw instance listing. Entries without an id
// are dropped.
func InstanceOptions(v any, loc *time.Location) []InstanceOption {
	if loc == nil {
		loc = time.UTC
	}

	items := record.List(v)
	options := make([]InstanceOption, 0, len(items))
	for _, item := range items {
		id, ok := record.NonEmptyString(item, record.ID)
		if !ok {
			continue
		}

		opt := InstanceOption{
			ID:     id,
			Name:   record.FirstString(item, "Workflow", record.Name, record.DefinitionID),
			Status: record.String(item, record.Status, "Unknown"),
		}
		if ts, ok := record.FirstTime(item, record.UpdatedAt, record.CreatedAt); ok {
			opt.Timestamp = &ts
		}
		opt.Label = optionLabel(opt, loc)
		options = append(options, opt)
	}
	return options
}

func optionLabel(opt InstanceOption, loc *time.Location) string {
	if opt.Timestamp == nil {
		return fmt.Sprintf("%s (%s) - %s", opt.Name, opt.Status, opt.ID)
	}
	return fmt.Sprintf("%s (%s · %s) - %s", opt.Name, opt.Status, opt.Timestamp.In(loc).Format("15:04:05"), opt.ID)
}
