package controllers

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// errResponseHandled signals that a helper already wrote the response.
var errResponseHandled = errors.New("response already handled")

// handled turns the result of writing a response into errResponseHandled
// unless writing itself failed.
func handled(writeErr error) error {
	if writeErr != nil {
		return writeErr
	}
	return errResponseHandled
}

// responded is the inverse of handled, used at the end of a handler.
func responded(err error) error {
	if errors.Is(err, errResponseHandled) {
		return nil
	}
	return err
}

// paramID parses a positive numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// jsonError writes the API error body {"error": code, "message": message}
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusBadRequest, "bad_request", message)
}

func internalError(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", message)
}
