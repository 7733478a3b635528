package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/facecoach/internal/cache"
	"github.com/yoockh/facecoach/internal/providers/tipgen"
)

const (
	tipCacheKey = "coach:daily_tip"
	tipCacheTTL = time.Hour
)

type TipHandler struct {
	provider tipgen.Provider
	cache    cache.Cache
	log      *logrus.Logger
}

func NewTipHandler(provider tipgen.Provider, c cache.Cache, log *logrus.Logger) *TipHandler {
	if log == nil {
		log = logrus.New()
	}
	return &TipHandler{provider: provider, cache: c, log: log}
}

type TipResponse struct {
	Tip    string `json:"tip"`
	Source string `json:"source"` // generated|cache|fallback
}

// DailyTip serves a generated coaching tip, cached so a burst of dashboard
// loads does not fan out into model calls.
func (h *TipHandler) DailyTip(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		var cached string
		if hit, err := h.cache.GetJSON(ctx, tipCacheKey, &cached); err == nil && hit && cached != "" {
			c.JSON(http.StatusOK, TipResponse{Tip: cached, Source: "cache"})
			return
		}
	}

	if h.provider == nil {
		c.JSON(http.StatusOK, TipResponse{Tip: tipgen.FallbackTip, Source: "fallback"})
		return
	}

	tip, err := h.provider.DailyTip(ctx)
	if err != nil {
		h.log.WithError(err).Warn("tip generation failed")
		c.JSON(http.StatusOK, TipResponse{Tip: tipgen.FallbackTip, Source: "fallback"})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, tipCacheKey, tip, tipCacheTTL); err != nil {
			h.log.WithError(err).Warn("tip cache write failed")
		}
	}

	c.JSON(http.StatusOK, TipResponse{Tip: tip, Source: "generated"})
}
