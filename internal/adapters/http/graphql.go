package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	pollutantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pollutant",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"display_name": &graphql.Field{Type: graphql.String},
			"collection":   &graphql.Field{Type: graphql.String},
			"band":         &graphql.Field{Type: graphql.String},
			"min":          &graphql.Field{Type: graphql.Float},
			"max":          &graphql.Field{Type: graphql.Float},
			"unit":         &graphql.Field{Type: graphql.String},
			"palette":      &graphql.Field{Type: graphql.NewList(graphql.String)},
			"insight":      &graphql.Field{Type: graphql.String},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"name":   &graphql.Field{Type: graphql.String},
			"bounds": &graphql.Field{Type: boundsType},
		},
	})

	cityMeanType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CityMean",
		Fields: graphql.Fields{
			"location":   &graphql.Field{Type: graphql.String},
			"mean_value": &graphql.Field{Type: graphql.Float, Description: "null when the source has no data"},
		},
	})

	analysisType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Analysis",
		Fields: graphql.Fields{
			"pollutant":   &graphql.Field{Type: pollutantType},
			"year":        &graphql.Field{Type: graphql.Int},
			"month":       &graphql.Field{Type: graphql.Int},
			"unit":        &graphql.Field{Type: graphql.String},
			"chart_title": &graphql.Field{Type: graphql.String},
			"insight":     &graphql.Field{Type: graphql.String},
			"scene_count": &graphql.Field{Type: graphql.Int},
			"entries":     &graphql.Field{Type: graphql.NewList(cityMeanType)},
			"computed_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	ticketType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ExportTicket",
		Fields: graphql.Fields{
			"task_id":      &graphql.Field{Type: graphql.String},
			"description":  &graphql.Field{Type: graphql.String},
			"submitted_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	selectionArgs := graphql.FieldConfigArgument{
		"pollutant": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		"year":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
		"month":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
	}
	selectionFrom := func(args map[string]interface{}) domain.SelectionState {
		return domain.SelectionState{
			Pollutant: domain.PollutantID(args["pollutant"].(string)),
			Year:      args["year"].(int),
			Month:     args["month"].(int),
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pollutants": &graphql.Field{
				Type:        graphql.NewList(pollutantType),
				Description: "List supported pollutants in selector order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.Pollutants(), nil
				},
			},
			"locations": &graphql.Field{
				Type:        graphql.NewList(locationType),
				Description: "Sample cities in reporting order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.Locations(), nil
				},
			},
			"region": &graphql.Field{
				Type:        regionType,
				Description: "Region every composite is clipped to",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.Region(), nil
				},
			},
			"analysis": &graphql.Field{
				Type:        analysisType,
				Description: "Monthly mean composite sampled at each city",
				Args:        selectionArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					a, err := deps.Analyses.Analyze(p.Context, selectionFrom(p.Args))
					if err != nil {
						return nil, err
					}
					return analysisView(a), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"exportRaster": &graphql.Field{
				Type:        ticketType,
				Description: "Queue a GeoTIFF export; returns as soon as the task is started",
				Args:        selectionArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Exports == nil {
						return nil, errExportsUnavailable
					}
					return deps.Exports.Submit(p.Context, selectionFrom(p.Args))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// analysisView flattens an analysis for the GraphQL Analysis type.
func analysisView(a *domain.Analysis) map[string]interface{} {
	entries := make([]map[string]interface{}, len(a.Result.Entries))
	for i, e := range a.Result.Entries {
		m := map[string]interface{}{"location": e.Location, "mean_value": nil}
		if e.MeanValue != nil {
			m["mean_value"] = *e.MeanValue
		}
		entries[i] = m
	}
	return map[string]interface{}{
		"pollutant":   a.Pollutant,
		"year":        a.Selection.Year,
		"month":       a.Selection.Month,
		"unit":        a.Result.Unit,
		"chart_title": a.ChartTitle,
		"insight":     a.Insight,
		"scene_count": a.Raster.SceneCount,
		"entries":     entries,
		"computed_at": a.ComputedAt,
	}
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
		if err := c.BodyParser(&req); err != nil {
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
