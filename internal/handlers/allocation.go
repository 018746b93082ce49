package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-allocation-api/internal/allocation"
	apierrors "github.com/yukikurage/team-allocation-api/internal/errors"
	"github.com/yukikurage/team-allocation-api/internal/services"
	"go.uber.org/zap"
)

type AllocationHandler struct {
	service *services.AllocationService
	log     *zap.Logger
}

func NewAllocationHandler(service *services.AllocationService, log *zap.Logger) *AllocationHandler {
	return &AllocationHandler{service: service, log: log}
}

// Overview returns member allocation views and statistics for the filter
func (h *AllocationHandler) Overview(c *gin.Context) {
	var filter allocation.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters")
		return
	}

	overview, err := h.service.Overview(filter)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
