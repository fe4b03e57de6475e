package domain

import (
	"time"
)

// PlaceCategory classifies a point of interest.
type PlaceCategory string

const (
	CategoryRestaurant PlaceCategory = "restaurant"
	CategoryCafe       PlaceCategory = "cafe"
	CategoryFoodTruck  PlaceCategory = "food_truck"
)

// Valid reports whether c is a known category.
func (c PlaceCategory) Valid() bool {
	switch c {
	case CategoryRestaurant, CategoryCafe, CategoryFoodTruck:
		return true
	}
	return false
}

// Place is a point of interest shown on the map (restaurant, café, food truck).
type Place struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Category        PlaceCategory `json:"category"`
	Location        GeoPoint      `json:"location"`
	Address         string        `json:"address,omitempty"`
	AvgSatisfaction float64       `json:"avg_satisfaction"`
	ReviewCount     int           `json:"review_count"`
	Distance        *float64      `json:"distance,omitempty"` // computed field, meters
	CreatedAt       time.Time     `json:"created_at"`
}

// Post is a user review of a place. Photos are URLs returned by the upload service.
type Post struct {
	ID           string    `json:"id"`
	PlaceID      string    `json:"place_id"`
	UserID       string    `json:"user_id"`
	Body         string    `json:"body"`
	Satisfaction int       `json:"satisfaction"` // 1..5
	Photos       []string  `json:"photos,omitempty"`
	Location     GeoPoint  `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
}

// WishlistItem is a place a user saved for later.
type WishlistItem struct {
	UserID  string    `json:"user_id"`
	PlaceID string    `json:"place_id"`
	Place   *Place    `json:"place,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// MarkerGroup is a set of posts rendered as a single map marker.
// Count 1 renders a plain marker, anything above renders a stacked count.
type MarkerGroup struct {
	ID       string   `json:"id"`
	Location GeoPoint `json:"location"` // position of the seed post
	Count    int      `json:"count"`
	Posts    []Post   `json:"posts"`
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a conversation with the assistant.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatReply is the assistant's answer.
type ChatReply struct {
	Message ChatMessage `json:"message"`
	Model   string      `json:"model,omitempty"`
}

// DistanceTier selects how far search results may be from the user.
type DistanceTier string

const (
	TierWalking DistanceTier = "walking"
	TierDriving DistanceTier = "driving"
	TierAny     DistanceTier = "any"
)

// MarkerPage is the marker layer for one viewport.
type MarkerPage struct {
	BBox   BoundingBox   `json:"bbox"`
	Total  int           `json:"total"` // posts inside the box
	Groups []MarkerGroup `json:"groups"`
}
