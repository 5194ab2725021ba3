package controller

import (
	"rag-assistant-be/internal/dto"
	"rag-assistant-be/internal/pkg/serverutils"
	"rag-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	SetPersona(ctx *fiber.Ctx) error
	NewConversation(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	GetPersonas(ctx *fiber.Ctx) error
	Reingest(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type assistantController struct {
	service service.IAssistantService
}

func NewAssistantController(service service.IAssistantService) IAssistantController {
	return &assistantController{service: service}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("/ask", c.Ask)
	h.Post("/persona", c.SetPersona)
	h.Post("/new", c.NewConversation)
	h.Get("/history/:sessionId", c.GetHistory)
	h.Get("/personas", c.GetPersonas)
	h.Post("/reingest", c.Reingest)
	h.Get("/health", c.Health)
}

func (c *assistantController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *assistantController) SetPersona(ctx *fiber.Ctx) error {
	var req dto.SetPersonaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SetPersona(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set persona", res))
}

func (c *assistantController) NewConversation(ctx *fiber.Ctx) error {
	var req dto.NewConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.NewConversation(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success start new conversation", nil))
}

func (c *assistantController) GetHistory(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("sessionId")

	res, err := c.service.GetHistory(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *assistantController) GetPersonas(ctx *fiber.Ctx) error {
	res := c.service.GetPersonas(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success get personas", res))
}

func (c *assistantController) Reingest(ctx *fiber.Ctx) error {
	if err := c.service.RequestReingest(ctx.Context()); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).
		JSON(serverutils.SuccessResponse[any]("Reingestion scheduled", nil))
}

func (c *assistantController) Health(ctx *fiber.Ctx) error {
	indexes := c.service.IndexStatus(ctx.Context())

	statuses := make([]dto.IndexStatusResponse, 0, len(indexes))
	for _, s := range indexes {
		statuses = append(statuses, *s)
	}

	return ctx.JSON(serverutils.SuccessResponse("Service is healthy", dto.HealthResponse{
		Status:  "ok",
		Indexes: statuses,
	}))
}
