package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
// Fields resolve through the json tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundingBoxType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingBox",
		Fields: graphql.Fields{
			"south_west": &graphql.Field{Type: geoPointType},
			"north_east": &graphql.Field{Type: geoPointType},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"name":             &graphql.Field{Type: graphql.String},
			"category":         &graphql.Field{Type: graphql.String},
			"location":         &graphql.Field{Type: geoPointType},
			"address":          &graphql.Field{Type: graphql.String},
			"avg_satisfaction": &graphql.Field{Type: graphql.Float},
			"review_count":     &graphql.Field{Type: graphql.Int},
			"distance":         &graphql.Field{Type: graphql.Float},
		},
	})

	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"place_id":     &graphql.Field{Type: graphql.String},
			"user_id":      &graphql.Field{Type: graphql.String},
			"body":         &graphql.Field{Type: graphql.String},
			"satisfaction": &graphql.Field{Type: graphql.Int},
			"photos":       &graphql.Field{Type: graphql.NewList(graphql.String)},
			"location":     &graphql.Field{Type: geoPointType},
			"created_at":   &graphql.Field{Type: graphql.DateTime},
		},
	})

	markerGroupType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MarkerGroup",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"count":    &graphql.Field{Type: graphql.Int},
			"posts":    &graphql.Field{Type: graphql.NewList(postType)},
		},
	})

	markerPageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MarkerPage",
		Fields: graphql.Fields{
			"bbox":   &graphql.Field{Type: boundingBoxType},
			"total":  &graphql.Field{Type: graphql.Int},
			"groups": &graphql.Field{Type: graphql.NewList(markerGroupType)},
		},
	})

	optionalPoint := func(args map[string]interface{}) *domain.GeoPoint {
		lat, okLat := args["lat"].(float64)
		lon, okLon := args["lon"].(float64)
		if !okLat || !okLon {
			return nil
		}
		return &domain.GeoPoint{Lat: lat, Lon: lon}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"markers": &graphql.Field{
				Type:        markerPageType,
				Description: "Grouped post markers for a map viewport",
				Args: graphql.FieldConfigArgument{
					"lat":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"zoom": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					vp := domain.Viewport{
						Center: domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)},
						Zoom:   p.Args["zoom"].(int),
					}
					return deps.Maps.Markers(p.Context, vp)
				},
			},
			"placesNearby": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Find places near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.Places.FindNearby(p.Context, center, p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"searchPlaces": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Search places by name, optionally within a distance tier",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":   &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":   &graphql.ArgumentConfig{Type: graphql.Float},
					"tier":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.TierAny)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.Search(p.Context,
						p.Args["query"].(string),
						optionalPoint(p.Args),
						domain.DistanceTier(p.Args["tier"].(string)),
						p.Args["limit"].(int))
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Get a place by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"placePosts": &graphql.Field{
				Type:        graphql.NewList(postType),
				Description: "Reviews of a place, newest first",
				Args: graphql.FieldConfigArgument{
					"id":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					posts, _, err := deps.Posts.ListByPlace(p.Context,
						p.Args["id"].(string), p.Args["offset"].(int), p.Args["limit"].(int))
					return posts, err
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
