package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the read-only GraphQL schema over reports and the
// authority catalogue.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	imageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Image",
		Fields: graphql.Fields{
			"url":         &graphql.Field{Type: graphql.String},
			"image_name":  &graphql.Field{Type: graphql.String},
			"width":       &graphql.Field{Type: graphql.Int},
			"height":      &graphql.Field{Type: graphql.Int},
			"file_size":   &graphql.Field{Type: graphql.Int},
			"geolocation": &graphql.Field{Type: geoPointType},
		},
	})

	reportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Report",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"user_id":      &graphql.Field{Type: graphql.Int},
			"description":  &graphql.Field{Type: graphql.String},
			"category":     &graphql.Field{Type: graphql.String},
			"location":     &graphql.Field{Type: geoPointType},
			"image":        &graphql.Field{Type: imageType},
			"authority":    &graphql.Field{Type: graphql.String},
			"resolved":     &graphql.Field{Type: graphql.Boolean},
			"upvote_count": &graphql.Field{Type: graphql.Int},
			"created_at":   &graphql.Field{Type: graphql.Int},
		},
	})

	authorityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Authority",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"authority_name": &graphql.Field{Type: graphql.String},
			"authority_type": &graphql.Field{Type: graphql.String},
			"email_address":  &graphql.Field{Type: graphql.String},
		},
	})

	bucketType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CategoryBucket",
		Fields: graphql.Fields{
			"authority_type": &graphql.Field{Type: graphql.String},
			"categories":     &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"reports": &graphql.Field{
				Type:        graphql.NewList(reportType),
				Description: "List all reports",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Reports.List(p.Context)
				},
			},
			"reportsByUser": &graphql.Field{
				Type:        graphql.NewList(reportType),
				Description: "List reports submitted by a user",
				Args: graphql.FieldConfigArgument{
					"user_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					uid := p.Args["user_id"].(int)
					return deps.Reports.ListByUser(p.Context, int64(uid))
				},
			},
			"report": &graphql.Field{
				Type:        reportType,
				Description: "Get a report by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Reports.Get(p.Context, id)
				},
			},
			"authorities": &graphql.Field{
				Type:        graphql.NewList(authorityType),
				Description: "List the authority catalogue",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Authorities.List(p.Context)
				},
			},
			"categories": &graphql.Field{
				Type:        graphql.NewList(bucketType),
				Description: "Report categories grouped by authority type",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Router.Categories().Buckets(), nil
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
