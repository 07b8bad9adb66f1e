package controller

import (
	"citation-assist-be/internal/dto"
	"citation-assist-be/internal/pkg/serverutils"
	"citation-assist-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISuggestController interface {
	RegisterRoutes(r fiber.Router)
	Suggest(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type suggestController struct {
	suggestService service.ISuggestService
}

func NewSuggestController(suggestService service.ISuggestService) ISuggestController {
	return &suggestController{suggestService: suggestService}
}

func (c *suggestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/suggest/v1")
	h.Use(serverutils.IdentityMiddleware)
	h.Post("", c.Suggest)
	h.Get("/stats", c.Stats)
}

func (c *suggestController) Suggest(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SuggestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.suggestService.Suggest(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success suggest", res))
}

func (c *suggestController) Stats(ctx *fiber.Ctx) error {
	res, err := c.suggestService.Stats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get stats", res))
}
