package http

import (
	"net/http"

	"github.com/dkeye/VoiceRelay/internal/adapters/rtc"
	"github.com/dkeye/VoiceRelay/internal/app/orch"
	"github.com/dkeye/VoiceRelay/internal/config"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	cfg  *config.Config
	orch *orch.Orchestrator
}

type HealthResponse struct {
	Status     string `json:"status"`
	Rooms      int    `json:"rooms"`
	AISessions int    `json:"ai_sessions"`
}

type WSInfoResponse struct {
	WSEndpoint string `json:"wsEndpoint"`
	Protocol   string `json:"protocol"`
	Port       int    `json:"port"`
}

func (h *handlers) health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Rooms: h.orch.Rooms.Count()}
	if h.orch.AI != nil {
		resp.AISessions = h.orch.AI.Count()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) wsInfo(c *gin.Context) {
	protocol := "ws"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		protocol = "wss"
	}
	c.JSON(http.StatusOK, WSInfoResponse{WSEndpoint: "/ws", Protocol: protocol, Port: h.cfg.Port})
}

func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.RoomViews())
}

func (h *handlers) getRoom(c *gin.Context) {
	view, ok := h.orch.RoomView(domain.RoomID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, rtc.BrowserConfig(h.cfg.ICEServers))
}
