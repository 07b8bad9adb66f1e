package controller

import (
	"citation-assist-be/internal/dto"
	"citation-assist-be/internal/pkg/serverutils"
	"citation-assist-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPaperController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	GetChunks(ctx *fiber.Ctx) error
	Ingest(ctx *fiber.Ctx) error
	Reprocess(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type paperController struct {
	ingestService    service.IIngestService
	publisherService service.IPublisherService
}

func NewPaperController(ingestService service.IIngestService, publisherService service.IPublisherService) IPaperController {
	return &paperController{
		ingestService:    ingestService,
		publisherService: publisherService,
	}
}

func (c *paperController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/paper/v1")
	h.Use(serverutils.IdentityMiddleware)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Get(":id/chunks", c.GetChunks)
	h.Post(":id/ingest", c.Ingest)
	h.Post(":id/reprocess", c.Reprocess)
	h.Delete(":id", c.Delete)
}

func (c *paperController) Create(ctx *fiber.Ctx) error {
	var req dto.CreatePaperRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestService.CreatePaper(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create paper", res))
}

func (c *paperController) GetAll(ctx *fiber.Ctx) error {
	var libraryId *uuid.UUID
	if raw := ctx.Query("library_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed library_id")
		}
		libraryId = &id
	}

	res, err := c.ingestService.GetAll(ctx.Context(), libraryId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all papers", res))
}

func (c *paperController) GetChunks(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed paper id")
	}

	res, err := c.ingestService.GetChunks(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get paper chunks", res))
}

func (c *paperController) Ingest(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed paper id")
	}

	var req dto.IngestPaperRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestService.Ingest(ctx.Context(), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Ingest finished", res))
}

// Reprocess queues a re-ingest from the stored text; the heavy work runs on
// the consumer, not in this request.
func (c *paperController) Reprocess(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed paper id")
	}

	if err := c.publisherService.PublishIngest(id); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Reprocess queued", fiber.Map{"paper_id": id}))
}

func (c *paperController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed paper id")
	}

	if err := c.ingestService.Delete(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete paper", nil))
}
