package controller

import (
	"github.com/ehcaw/documix/internal/dto"
	"github.com/ehcaw/documix/internal/pkg/serverutils"
	"github.com/ehcaw/documix/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	ListSources(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IIngestService
}

func NewDocumentController(service service.IIngestService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/upload", c.Upload)
	h.Get("/sources", c.ListSources)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	scope := serverutils.ScopeFromLocals(ctx)

	var req dto.UploadDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.Context(), scope, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *documentController) ListSources(ctx *fiber.Ctx) error {
	scope := serverutils.ScopeFromLocals(ctx)

	res, err := c.service.ListDocuments(ctx.Context(), scope)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sources", res))
}
