package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/pkg/metrics"
)

const maxNearbyRadius = 50000

// queryPoint parses lat/lon. ok is false when both are absent.
func queryPoint(c *fiber.Ctx) (p domain.GeoPoint, ok bool, err error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return p, false, nil
	}
	if latStr == "" || lonStr == "" {
		return p, false, fiber.NewError(fiber.StatusBadRequest, "lat and lon must be given together")
	}
	if p.Lat, err = strconv.ParseFloat(latStr, 64); err != nil || p.Lat < -90 || p.Lat > 90 {
		return p, false, fiber.NewError(fiber.StatusBadRequest, "lat must be a number within -90..90")
	}
	if p.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil || p.Lon < -180 || p.Lon > 180 {
		return p, false, fiber.NewError(fiber.StatusBadRequest, "lon must be a number within -180..180")
	}
	return p, true, nil
}

// requirePoint is queryPoint for endpoints where a location is mandatory.
func requirePoint(c *fiber.Ctx) (domain.GeoPoint, error) {
	p, ok, err := queryPoint(c)
	if err != nil {
		return p, err
	}
	if !ok {
		return p, fiber.NewError(fiber.StatusBadRequest, "lat and lon are required")
	}
	return p, nil
}

func badRequestFrom(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return errBadRequest(c, fe.Message)
	}
	return errBadRequest(c, err.Error())
}

// MarkersHandler returns the grouped post markers for a map viewport.
func MarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := requirePoint(c)
		if err != nil {
			return badRequestFrom(c, err)
		}
		zoomStr := c.Query("zoom")
		if zoomStr == "" {
			return errBadRequest(c, "zoom is required")
		}
		zoom, err := strconv.Atoi(zoomStr)
		if err != nil {
			return errBadRequest(c, "zoom must be an integer")
		}

		page, err := deps.Maps.Markers(c.UserContext(), domain.Viewport{Center: center, Zoom: zoom})
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(page)
	}
}

// NearbyPlacesHandler returns places within a radius of a point.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := requirePoint(c)
		if err != nil {
			return badRequestFrom(c, err)
		}
		radius := c.QueryFloat("radius", 1000)
		if radius <= 0 || radius > maxNearbyRadius {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}
		limit := c.QueryInt("limit", 20)

		places, err := deps.Places.FindNearby(c.UserContext(), center, radius, limit)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(nonNil(places))
	}
}

// SearchPlacesHandler matches places by name, optionally near a point and
// within a distance tier (walking, driving, any).
func SearchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if strings.TrimSpace(query) == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		near, ok, err := queryPoint(c)
		if err != nil {
			return badRequestFrom(c, err)
		}
		tier := domain.DistanceTier(c.Query("tier", string(domain.TierAny)))
		if !ok && tier != domain.TierAny {
			return errBadRequest(c, "tier requires lat and lon")
		}
		var nearPtr *domain.GeoPoint
		if ok {
			nearPtr = &near
		}

		places, err := deps.Places.Search(c.UserContext(), query, nearPtr, tier, c.QueryInt("limit", 20))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(nonNil(places))
	}
}

// GetPlaceHandler returns a single place.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		place, err := deps.Places.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(place)
	}
}

// PlacePostsHandler lists a place's reviews, newest first.
func PlacePostsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		placeID := c.Params("id")
		if _, err := deps.Places.GetByID(c.UserContext(), placeID); err != nil {
			return errFrom(c, err)
		}

		offset, limit := pagingParams(c, 20, 100)
		posts, total, err := deps.Posts.ListByPlace(c.UserContext(), placeID, offset, limit)
		if err != nil {
			return errFrom(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: nonNil(posts), Pagination: pg})
	}
}

type createPostRequest struct {
	PlaceID      string   `json:"place_id"`
	Body         string   `json:"body"`
	Satisfaction int      `json:"satisfaction"`
	Photos       []string `json:"photos"`
}

// CreatePostHandler stores a review. With a workflow starter the post is
// validated here and published asynchronously (202); otherwise it is stored
// inline (201).
func CreatePostHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(HeaderUserID)
		if userID == "" {
			return errUnauthorized(c, "missing "+HeaderUserID+" header")
		}

		var req createPostRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		post := &domain.Post{
			PlaceID:      req.PlaceID,
			UserID:       userID,
			Body:         req.Body,
			Satisfaction: req.Satisfaction,
			Photos:       req.Photos,
		}
		ctx := c.UserContext()

		if deps.Workflows == nil {
			if err := deps.Posts.Create(ctx, post); err != nil {
				return errFrom(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(post)
		}

		place, err := deps.Posts.Prepare(ctx, post)
		if err != nil {
			return errFrom(c, err)
		}
		workflowID, err := deps.Workflows.StartPublishPost(ctx, post)
		if err != nil {
			return errInternal(c, err)
		}
		metrics.PostsCreated.WithLabelValues(string(place.Category)).Inc()

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"post":        post,
			"workflow_id": workflowID,
			"status":      "pending",
		})
	}
}

// GetPostHandler returns a single post.
func GetPostHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		post, err := deps.Posts.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(post)
	}
}

// ListWishlistHandler returns the caller's saved places.
func ListWishlistHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(HeaderUserID)
		if userID == "" {
			return errUnauthorized(c, "missing "+HeaderUserID+" header")
		}
		items, err := deps.Wishlist.List(c.UserContext(), userID)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(nonNil(items))
	}
}

// AddWishlistHandler saves a place for the caller.
func AddWishlistHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(HeaderUserID)
		if userID == "" {
			return errUnauthorized(c, "missing "+HeaderUserID+" header")
		}
		if err := deps.Wishlist.Add(c.UserContext(), userID, c.Params("placeId")); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RemoveWishlistHandler drops a saved place.
func RemoveWishlistHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(HeaderUserID)
		if userID == "" {
			return errUnauthorized(c, "missing "+HeaderUserID+" header")
		}
		if err := deps.Wishlist.Remove(c.UserContext(), userID, c.Params("placeId")); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
	Lat      *float64             `json:"lat"`
	Lon      *float64             `json:"lon"`
}

// ChatHandler forwards a conversation to the assistant.
func ChatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Chat == nil {
			return errUnavailable(c, "assistant is not configured")
		}

		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		var near *domain.GeoPoint
		switch {
		case req.Lat != nil && req.Lon != nil:
			near = &domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon}
		case req.Lat != nil || req.Lon != nil:
			return errBadRequest(c, "lat and lon must be given together")
		}

		reply, err := deps.Chat.Ask(c.UserContext(), req.Messages, near)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(reply)
	}
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
