package api

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
	idempotencyx "github.com/tanpawarit/salon-agent-gateway/agent/idempotency"
	journalx "github.com/tanpawarit/salon-agent-gateway/agent/journal"
)

type AgentLister interface {
	Names() []string
}

type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journalx.Entry, error)
}

type Options struct {
	Dispatcher  contractx.Dispatcher
	Agents      AgentLister
	Journal     JournalReader
	Idempotency idempotencyx.Store
}

func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	h := &handler{
		dispatcher: opts.Dispatcher,
		agents:     opts.Agents,
		journal:    opts.Journal,
	}

	r := gin.New()
	r.Use(
		requestID(),
		accessLog(),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", idempotencyx.HeaderKey, headerRequestID},
			ExposeHeaders:   []string{headerRequestID, idempotencyx.HeaderReplayed},
			MaxAge:          12 * time.Hour,
		}),
	)

	r.GET("/health", h.health)
	r.POST("/agent-task", idempotencyx.Middleware(opts.Idempotency), h.agentTask)

	group := r.Group("/api")
	group.GET("/salons", h.listSalons)
	group.POST("/salons", h.createSalon)
	group.GET("/dispatches", h.listDispatches)

	return r, nil
}
