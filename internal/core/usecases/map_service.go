package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/core/ports"
	"github.com/dishdash/dishdash/internal/pkg/geospatial"
	"github.com/dishdash/dishdash/internal/pkg/metrics"
	"github.com/dishdash/dishdash/internal/pkg/telemetry"
)

const (
	// markerCellLevel names marker groups; level-24 cells are under a meter wide.
	markerCellLevel = 24

	// cacheCellLevel buckets cached marker pages by the viewport center (~5-10 km cells).
	cacheCellLevel = 10

	markerCachePrefix = "markers:"
)

// MapOptions tunes the marker layer.
type MapOptions struct {
	GroupThresholdMeters float64
	ViewportWidthPx      int
	MaxPosts             int
	CacheTTLSeconds      int
}

// DefaultMapOptions matches the client's defaults: 3 m stacking, 1024 px viewport.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		GroupThresholdMeters: 3,
		ViewportWidthPx:      1024,
		MaxPosts:             500,
		CacheTTLSeconds:      60,
	}
}

// MapService builds the marker layer for a map viewport.
type MapService struct {
	posts  ports.PostRepository
	cache  ports.CacheService
	opts   MapOptions
	tracer trace.Tracer
}

// NewMapService creates a new MapService.
func NewMapService(posts ports.PostRepository, cache ports.CacheService, opts MapOptions) *MapService {
	def := DefaultMapOptions()
	if opts.ViewportWidthPx <= 0 {
		opts.ViewportWidthPx = def.ViewportWidthPx
	}
	if opts.MaxPosts <= 0 {
		opts.MaxPosts = def.MaxPosts
	}
	if opts.CacheTTLSeconds <= 0 {
		opts.CacheTTLSeconds = def.CacheTTLSeconds
	}
	return &MapService{
		posts:  posts,
		cache:  cache,
		opts:   opts,
		tracer: otel.Tracer("github.com/dishdash/dishdash/internal/core/usecases"),
	}
}

// Markers loads the posts visible in vp and stacks colocated ones into marker groups.
func (s *MapService) Markers(ctx context.Context, vp domain.Viewport) (*domain.MarkerPage, error) {
	ctx, span := s.tracer.Start(ctx, "MapService.Markers", trace.WithAttributes(
		attribute.Int(telemetry.AttrViewportZoom, vp.Zoom),
		attribute.Float64(telemetry.AttrGroupThreshold, s.opts.GroupThresholdMeters),
	))
	defer span.End()

	if err := geospatial.ValidateViewport(vp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	box := geospatial.ViewportBox(vp, s.opts.ViewportWidthPx)
	cacheKey := markerCacheKey(vp.Center, box)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var page domain.MarkerPage
			if err := json.Unmarshal(data, &page); err == nil {
				metrics.Cache("markers", true)
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return &page, nil
			}
		}
		metrics.Cache("markers", false)
	}

	posts, err := s.posts.FindInBounds(ctx, box, s.opts.MaxPosts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("posts in bounds: %w", err)
	}

	page := BuildMarkerPage(box, posts, s.opts.GroupThresholdMeters)

	metrics.MarkerPostsLoaded.Observe(float64(len(posts)))
	metrics.MarkerGroupsBuilt.Observe(float64(len(page.Groups)))
	span.SetAttributes(
		attribute.Int(telemetry.AttrViewportPosts, len(posts)),
		attribute.Int(telemetry.AttrMarkerGroups, len(page.Groups)),
	)

	if s.cache != nil {
		if data, err := json.Marshal(page); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTLSeconds)
		}
	}

	return page, nil
}

// InvalidateAround drops cached marker pages whose viewport center is near p.
// Pages for viewports wider than the neighbouring cells expire with their TTL.
func (s *MapService) InvalidateAround(ctx context.Context, p domain.GeoPoint) error {
	if s.cache == nil {
		return nil
	}
	for _, token := range geospatial.NeighborTokens(p, cacheCellLevel) {
		if err := s.cache.DeletePrefix(ctx, markerCachePrefix+token+":"); err != nil {
			return fmt.Errorf("invalidate markers %s: %w", token, err)
		}
	}
	slog.DebugContext(ctx, "marker cache invalidated", "lat", p.Lat, "lon", p.Lon)
	return nil
}

// BuildMarkerPage groups posts into markers. Group ids combine the seed's S2 cell
// and post id, so they stay stable while the seed is unchanged.
func BuildMarkerPage(box domain.BoundingBox, posts []domain.Post, thresholdMeters float64) *domain.MarkerPage {
	start := time.Now()
	groups := geospatial.GroupByProximity(posts, thresholdMeters, postLocation)
	metrics.GroupingDuration.Observe(time.Since(start).Seconds())

	page := &domain.MarkerPage{
		BBox:   box,
		Total:  len(posts),
		Groups: make([]domain.MarkerGroup, 0, len(groups)),
	}
	for _, g := range groups {
		seed := g[0]
		page.Groups = append(page.Groups, domain.MarkerGroup{
			ID:       geospatial.CellToken(seed.Location, markerCellLevel) + ":" + seed.ID,
			Location: seed.Location,
			Count:    len(g),
			Posts:    g,
		})
	}
	return page
}

func markerCacheKey(center domain.GeoPoint, box domain.BoundingBox) string {
	return fmt.Sprintf("%s%s:%.5f:%.5f:%.5f:%.5f",
		markerCachePrefix, geospatial.CellToken(center, cacheCellLevel),
		box.SouthWest.Lat, box.SouthWest.Lon, box.NorthEast.Lat, box.NorthEast.Lon)
}

func postLocation(p domain.Post) domain.GeoPoint   { return p.Location }
func placeLocation(p domain.Place) domain.GeoPoint { return p.Location }
