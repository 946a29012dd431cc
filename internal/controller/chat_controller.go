package controller

import (
	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/pkg/serverutils"
	"chat-relay-be/internal/service"
	internalWS "chat-relay-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Connect(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
}

type chatController struct {
	relayService  service.IRelayService
	answerService service.IAnswerService
	hub           *internalWS.Hub
	gatekeeper    *internalWS.Gatekeeper
	jwtMiddleware fiber.Handler
}

func NewChatController(
	relayService service.IRelayService,
	answerService service.IAnswerService,
	hub *internalWS.Hub,
	gatekeeper *internalWS.Gatekeeper,
	jwtMiddleware fiber.Handler,
) IChatController {
	return &chatController{
		relayService:  relayService,
		answerService: answerService,
		hub:           hub,
		gatekeeper:    gatekeeper,
		jwtMiddleware: jwtMiddleware,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")

	// The websocket route skips the JWT guard: identity is resolved on the
	// connect frame after the upgrade, and anonymous connections are allowed.
	h.Get("/ws", c.Connect)

	h.Use(c.jwtMiddleware)
	h.Get("/rooms/:roomId/messages", c.GetHistory)
	h.Post("/ask", c.Ask)
}

// Connect upgrades the request and hands the connection to the hub.
func (c *chatController) Connect(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(c.hub, c.gatekeeper, conn)
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	roomId := ctx.Params("roomId")
	// No default page size: history returns every record unless the caller
	// opts into pagination.
	limit := ctx.QueryInt("limit", 0)
	offset := ctx.QueryInt("offset", 0)

	messages, err := c.relayService.GetHistory(ctx.Context(), roomId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", messages))
}

// Ask runs the retrieval-augmented answer pipeline. It always responds 200
// with an answer string; pipeline failures degrade to fallback text inside
// the service.
func (c *chatController) Ask(ctx *fiber.Ctx) error {
	principal, _ := ctx.Locals("principal").(string)

	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.answerService.Ask(ctx.Context(), principal, req.Question, req.TopK)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ask", res))
}
