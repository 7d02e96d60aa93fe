package http

import (
	"github.com/gofiber/fiber/v2"
)

// ListAuthoritiesHandler returns the authority catalogue.
func ListAuthoritiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auths, err := deps.Authorities.List(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}
		return sendList(c, auths)
	}
}

// ListCategoriesHandler returns the category buckets used for routing.
func ListCategoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Router.Categories().Buckets())
	}
}
