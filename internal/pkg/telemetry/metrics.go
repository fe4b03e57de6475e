package telemetry

// Span attribute keys shared by instrumented use cases.
const (
	// Map
	AttrViewportZoom   = "map.viewport_zoom"
	AttrViewportPosts  = "map.viewport_posts"
	AttrMarkerGroups   = "map.marker_groups"
	AttrGroupThreshold = "map.group_threshold_meters"
	AttrCacheHit       = "cache.hit"
)
