package serverutils

import "github.com/gofiber/fiber/v2"

// SuccessResponse is the uniform envelope for successful JSON responses.
func SuccessResponse(message string, data interface{}) fiber.Map {
	return fiber.Map{
		"message": message,
		"data":    data,
	}
}
