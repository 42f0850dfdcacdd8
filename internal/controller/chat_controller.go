package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ehcaw/documix/internal/dto"
	"github.com/ehcaw/documix/internal/pkg/serverutils"
	"github.com/ehcaw/documix/internal/session"
	"github.com/ehcaw/documix/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	ArchiveSession(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
}

type chatController struct {
	coordinator *session.Coordinator
	hub         *websocket.Hub
}

func NewChatController(coordinator *session.Coordinator, hub *websocket.Hub) IChatController {
	return &chatController{coordinator: coordinator, hub: hub}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/session", c.CreateSession)
	h.Get("/sessions", c.ListSessions)
	h.Get("/session/:id/history", c.History)
	h.Delete("/session/:id", c.ArchiveSession)
	h.Post("/session/:id/stop", c.Stop)
	h.Post("/send", c.Send)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	scope := serverutils.ScopeFromLocals(ctx)

	id, err := c.coordinator.Create(ctx.Context(), scope)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", dto.CreateSessionResponse{Id: id}))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	scope := serverutils.ScopeFromLocals(ctx)

	summaries, err := c.coordinator.List(ctx.Context(), scope)
	if err != nil {
		return err
	}

	res := make([]dto.SessionSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		res = append(res, dto.SessionSummaryResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	messages, err := c.coordinator.History(ctx.Context(), id)
	if err != nil {
		return err
	}

	res := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, dto.ChatMessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.FlattenedContent(),
			CreatedAt: m.CreatedAt,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *chatController) ArchiveSession(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	if err := c.coordinator.Archive(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success archive session", nil))
}

func (c *chatController) Stop(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	if err := c.coordinator.Stop(id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success stop stream", nil))
}

// Send runs one chat turn, streaming answer fragments as server-sent events
// and mirroring them to the caller's websocket connections. The final event
// carries the finalized message.
func (c *chatController) Send(ctx *fiber.Ctx) error {
	scope := serverutils.ScopeFromLocals(ctx)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// Resolve the id before streaming so every event can carry it.
	if req.ConversationId == nil {
		id, err := c.coordinator.Create(ctx.Context(), scope)
		if err != nil {
			return err
		}
		req.ConversationId = &id
	}
	conversationId := *req.ConversationId

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	coordinator := c.coordinator
	hub := c.hub

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		streamCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sink := func(delta string) {
			event := websocket.StreamEvent{
				Type:           "fragment",
				ConversationId: conversationId,
				Delta:          delta,
			}
			if writeSSE(w, event) != nil {
				// Client went away; stop the generation stream.
				cancel()
				return
			}
			hub.Send(scope, event)
		}

		result, err := coordinator.Submit(streamCtx, &conversationId, scope, req.Chat, sink)
		if err != nil {
			writeSSE(w, map[string]interface{}{
				"type":            "error",
				"conversation_id": conversationId,
				"message":         err.Error(),
			})
			return
		}

		eventType := "done"
		if result.Interrupted {
			eventType = "stopped"
		}
		final := websocket.StreamEvent{
			Type:           eventType,
			ConversationId: result.ConversationId,
			Content:        result.Message.Content,
		}
		hub.Send(scope, final)

		citations := make([]dto.CitationResponse, 0, len(result.Citations))
		for _, ct := range result.Citations {
			citations = append(citations, dto.CitationResponse{Source: ct.Source, Score: ct.Score})
		}
		writeSSE(w, map[string]interface{}{
			"type":            eventType,
			"conversation_id": result.ConversationId,
			"message": dto.ChatMessageResponse{
				Id:        result.Message.Id,
				Role:      result.Message.Role,
				Content:   result.Message.Content,
				CreatedAt: result.Message.CreatedAt,
			},
			"interrupted": result.Interrupted,
			"citations":   citations,
		})
	})

	return nil
}

func writeSSE(w *bufio.Writer, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
