package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"
	"github.com/OmniCloudOrg/CPI-Detee/internal/core/ports"
)

// ActionHandler exposes the action surface over HTTP.
type ActionHandler struct {
	dispatcher ports.ActionDispatcher
}

func NewActionHandler(dispatcher ports.ActionDispatcher) *ActionHandler {
	return &ActionHandler{dispatcher: dispatcher}
}

// ListActions returns the fixed enumerated action set.
func (h *ActionHandler) ListActions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"actions": domain.Actions()})
}

// Execute dispatches one action. The body is an optional JSON object of
// named parameters; the response is always the structured ActionResponse.
func (h *ActionHandler) Execute(c *fiber.Ctx) error {
	params := map[string]any{}
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			resp := domain.Fail(domain.NewError(domain.ErrInvalidParameter, "request body is not a JSON object"))
			return c.Status(fiber.StatusBadRequest).JSON(resp)
		}
	}

	resp := h.dispatcher.Dispatch(c.Context(), domain.ActionRequest{
		Action: c.Params("name"),
		Params: params,
	})
	return c.Status(statusFor(resp)).JSON(resp)
}

// statusFor maps the error kind to an HTTP status. Success is always 200;
// the structured error object itself travels in the body.
func statusFor(resp domain.ActionResponse) int {
	if resp.Error == nil {
		return fiber.StatusOK
	}
	switch resp.Error.Kind {
	case domain.ErrUnknownAction, domain.ErrNotFound:
		return fiber.StatusNotFound
	case domain.ErrInvalidParameter:
		return fiber.StatusBadRequest
	case domain.ErrNotConfigured:
		return fiber.StatusConflict
	case domain.ErrContainerNotReady:
		return fiber.StatusServiceUnavailable
	case domain.ErrCommandTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusBadGateway
	}
}
