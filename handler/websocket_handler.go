package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/finqa-labs/finqa-be/service"
)

type WebSocketHandler struct {
	ws *service.WebSocketService
}

func NewWebSocketHandler(ws *service.WebSocketService) *WebSocketHandler {
	return &WebSocketHandler{
		ws: ws,
	}
}

func (h *WebSocketHandler) HandleChat(c *gin.Context) {
	h.ws.HandleConnection(c.Writer, c.Request)
}
