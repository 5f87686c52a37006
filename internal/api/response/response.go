// Package response writes the JSON envelope shared by every API route:
// {"success":true,"data":...} on success and {"success":false,"error":...}
// on failure.
package response

import (
	"github.com/gofiber/fiber/v2"
)

type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Pagination interface{} `json:"pagination,omitempty"`
	Total      *int64      `json:"total,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func OK(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

func Page(data, pagination interface{}) Envelope {
	return Envelope{Success: true, Data: data, Pagination: pagination}
}

func Counted(data interface{}, total int64) Envelope {
	return Envelope{Success: true, Data: data, Total: &total}
}

func Fail(message string) Envelope {
	return Envelope{Success: false, Error: message}
}

// Error writes a failure envelope with the given status.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Fail(message))
}
