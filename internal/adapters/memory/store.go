// Package memory provides R-tree backed repositories for local development
// and tests. All data lives in process memory and is lost on restart.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dhconnelly/rtreego"

	"github.com/dishdash/dishdash/internal/core/domain"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50

	// pointTolerance is the half-width in degrees of the rectangle each point occupies.
	pointTolerance = 1e-9
)

// spatialPlace wraps a Place for R-tree indexing.
type spatialPlace struct {
	place domain.Place
	rect  *rtreego.Rect
}

func (s *spatialPlace) Bounds() *rtreego.Rect { return s.rect }

// spatialPost wraps a Post for R-tree indexing.
type spatialPost struct {
	post domain.Post
	rect *rtreego.Rect
}

func (s *spatialPost) Bounds() *rtreego.Rect { return s.rect }

type ratingSum struct {
	total int
	count int
}

// Store holds places, posts and wishlists. Use Places, Posts and Wishlist to
// get the port implementations.
type Store struct {
	mu sync.RWMutex

	placeTree *rtreego.Rtree
	postTree  *rtreego.Rtree

	places   map[string]*spatialPlace
	posts    map[string]*spatialPost
	ratings  map[string]ratingSum
	wishlist map[string]map[string]time.Time

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		placeTree: rtreego.NewTree(dimensions, minChildren, maxChildren),
		postTree:  rtreego.NewTree(dimensions, minChildren, maxChildren),
		places:    make(map[string]*spatialPlace),
		posts:     make(map[string]*spatialPost),
		ratings:   make(map[string]ratingSum),
		wishlist:  make(map[string]map[string]time.Time),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Places returns the store as a ports.PlaceRepository.
func (s *Store) Places() *PlaceRepo { return &PlaceRepo{s: s} }

// Posts returns the store as a ports.PostRepository.
func (s *Store) Posts() *PostRepo { return &PostRepo{s: s} }

// Wishlist returns the store as a ports.WishlistRepository.
func (s *Store) Wishlist() *WishlistRepo { return &WishlistRepo{s: s} }

// Size returns the number of indexed places and posts.
func (s *Store) Size() (places, posts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.placeTree.Size(), s.postTree.Size()
}

func pointRect(p domain.GeoPoint) *rtreego.Rect {
	return rtreego.Point{p.Lat, p.Lon}.ToRect(pointTolerance)
}

// boxRect converts a bounding box to a search rectangle. Degenerate boxes are
// widened by the point tolerance so NewRect accepts them.
func boxRect(box domain.BoundingBox) (*rtreego.Rect, error) {
	latLen := box.NorthEast.Lat - box.SouthWest.Lat
	lonLen := box.NorthEast.Lon - box.SouthWest.Lon
	origin := rtreego.Point{box.SouthWest.Lat - pointTolerance, box.SouthWest.Lon - pointTolerance}
	return rtreego.NewRect(origin, []float64{latLen + 2*pointTolerance, lonLen + 2*pointTolerance})
}

// withRating returns a copy of p carrying the current review aggregates.
// Caller holds s.mu.
func (s *Store) withRating(p domain.Place) domain.Place {
	if r, ok := s.ratings[p.ID]; ok && r.count > 0 {
		p.ReviewCount = r.count
		p.AvgSatisfaction = float64(r.total) / float64(r.count)
	}
	return p
}

func sortPlaces(places []domain.Place) {
	sort.Slice(places, func(i, j int) bool {
		ni, nj := strings.ToLower(places[i].Name), strings.ToLower(places[j].Name)
		if ni != nj {
			return ni < nj
		}
		return places[i].ID < places[j].ID
	})
}
