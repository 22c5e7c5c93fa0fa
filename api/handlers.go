package api

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/relay/pkg/bot"
	"github.com/papercomputeco/relay/pkg/merkle"
	"github.com/papercomputeco/relay/pkg/render"
	"github.com/papercomputeco/relay/pkg/storage"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RenderResponse is the body of POST /v1/render.
type RenderResponse struct {
	Lines []string `json:"lines"`
}

// MessageResponse is the body of POST /v1/messages.
type MessageResponse struct {
	ID      string   `json:"id"`
	Replies []string `json:"replies"`
}

// TurnsResponse lists the turns of a chat, oldest first.
type TurnsResponse struct {
	ChatID string         `json:"chat_id"`
	Count  int            `json:"count"`
	Turns  []*merkle.Node `json:"turns"`
}

// HistoryResponse contains the chain of turns leading up to a given node.
type HistoryResponse struct {
	// Turns in chronological order (oldest first, up to and including the requested node)
	Turns []*merkle.Node `json:"turns"`
	// HeadHash is the hash of the node that was requested
	HeadHash string `json:"head_hash"`
	// Depth is the number of turns in the history
	Depth int `json:"depth"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleRender renders raw provider output, whatever its content type.
func (s *Server) handleRender(c *fiber.Ctx) error {
	lines := render.Body(c.Body())
	s.config.Metrics.ObserveRender(len(lines))

	if lines == nil {
		lines = []string{}
	}
	return c.JSON(RenderResponse{Lines: lines})
}

// handleMessage runs a webhook chat message through the bot and returns the
// replies it sent.
func (s *Server) handleMessage(c *fiber.Ctx) error {
	var msg bot.Message
	if err := json.Unmarshal(c.Body(), &msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid message body"})
	}
	if strings.TrimSpace(msg.ChatID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "chat_id is required"})
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	col := &collector{}
	if err := s.config.Bot.Handle(withCollector(c.UserContext(), col), msg); err != nil {
		s.logger.Error("webhook message failed", "id", msg.ID, "chat_id", msg.ChatID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to handle message"})
	}

	return c.JSON(MessageResponse{ID: msg.ID, Replies: col.all()})
}

// handleListTurns returns the stored turns of one chat.
func (s *Server) handleListTurns(c *fiber.Ctx) error {
	chatID := c.Query("chat_id")
	if chatID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "chat_id query parameter required"})
	}

	turns, err := s.config.Storer.List(c.UserContext(), chatID)
	if err != nil {
		s.logger.Error("failed to list turns", "chat_id", chatID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list turns"})
	}

	return c.JSON(TurnsResponse{ChatID: chatID, Count: len(turns), Turns: turns})
}

// handleGetTurn returns a single turn by its hash.
func (s *Server) handleGetTurn(c *fiber.Ctx) error {
	node, err := s.config.Storer.Get(c.UserContext(), c.Params("hash"))
	if err != nil {
		return s.storageError(c, err)
	}
	return c.JSON(node)
}

// handleGetHistory returns the chain of turns leading up to a given turn.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	hash := c.Params("hash")

	ancestry, err := s.config.Storer.Ancestry(c.UserContext(), hash)
	if err != nil {
		return s.storageError(c, err)
	}
	slices.Reverse(ancestry)

	return c.JSON(HistoryResponse{
		Turns:    ancestry,
		HeadHash: hash,
		Depth:    len(ancestry),
	})
}

func (s *Server) storageError(c *fiber.Ctx, err error) error {
	if storage.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "turn not found"})
	}
	s.logger.Error("storage lookup failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "storage lookup failed"})
}
