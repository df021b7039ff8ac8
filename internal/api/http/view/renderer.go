// Package view turns handler payloads into responses.
package view

import "github.com/gofiber/fiber/v2"

// Renderer writes a named view with its data.
type Renderer interface {
	Render(c *fiber.Ctx, status int, name string, data any) error
}

// JSONRenderer emits {"view": name, "data": data}.
type JSONRenderer struct{}

// Render implements Renderer.
func (JSONRenderer) Render(c *fiber.Ctx, status int, name string, data any) error {
	return c.Status(status).JSON(fiber.Map{"view": name, "data": data})
}
