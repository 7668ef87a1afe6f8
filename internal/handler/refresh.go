package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"petflip/internal/repository"
	"petflip/internal/service"
)

// RefreshHandler exposes the refresh write path: on-demand refresh, the
// status record, and the destructive series reset.
type RefreshHandler struct {
	Refresh *service.RefreshService
	Store   repository.PriceRepository
	Logger  *zap.Logger
}

func (h *RefreshHandler) Register(r *gin.Engine) {
	r.POST("/api/refresh", h.refresh)
	r.GET("/api/last_update", h.lastUpdate)
	r.POST("/api/reset", h.reset)
}

func (h *RefreshHandler) refresh(c *gin.Context) {
	result, err := h.Refresh.Refresh(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *RefreshHandler) lastUpdate(c *gin.Context) {
	state, err := h.Refresh.LastUpdate(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if state == nil {
		Error(c, http.StatusNotFound, "no refresh has run yet", nil)
		return
	}
	Ok(c, state, nil)
}

func (h *RefreshHandler) reset(c *gin.Context) {
	if err := h.Store.ResetPrices(c.Request.Context()); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	h.Logger.Warn("price history reset by operator request")
	Ok(c, gin.H{"reset": true}, nil)
}
