package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/utils/apperror"
	"github.com/sahilchouksey/devcamper-api/utils/validation"
)

// ParamID parses a numeric route parameter. Ids that cannot exist are
// reported as not found.
func ParamID(c *fiber.Ctx, name, resource string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.NotFound("%s not found with id of %s", resource, raw)
	}
	return uint(id), nil
}

// ParseBody decodes the JSON body into dst and validates it
func ParseBody(c *fiber.Ctx, v *validation.Validator, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	return v.ValidateStruct(dst)
}
