package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
)

type handler struct {
	dispatcher contractx.Dispatcher
	agents     AgentLister
	journal    JournalReader
}

func (h *handler) agentTask(c *gin.Context) {
	var task contractx.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), task)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("agent", task.AgentName).Msg("agent task failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) health(c *gin.Context) {
	body := gin.H{"status": "OK", "message": "Salon Management API is running"}
	if h.agents != nil {
		body["agents"] = h.agents.Names()
	}
	c.JSON(http.StatusOK, body)
}

func (h *handler) listSalons(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Get all salons endpoint"})
}

func (h *handler) createSalon(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Create salon endpoint"})
}

func (h *handler) listDispatches(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dispatch journal is disabled"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	entries, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("list dispatches failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispatches": entries})
}
