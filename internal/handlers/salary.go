package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/team-allocation-api/internal/errors"
	"github.com/yukikurage/team-allocation-api/internal/salary"
)

type SalaryHandler struct{}

func NewSalaryHandler() *SalaryHandler {
	return &SalaryHandler{}
}

type breakdownQuery struct {
	CTC      float64  `form:"ctc" binding:"required,gt=0"`
	Tier     string   `form:"tier" binding:"required"`
	Variable *float64 `form:"variable" binding:"omitempty,gte=0"`
}

type breakdownResponse struct {
	salary.Breakdown
	NegativeBalance bool `json:"negative_balance"`
}

// Breakdown derives the monthly salary structure for a CTC and tier
func (h *SalaryHandler) Breakdown(c *gin.Context) {
	var q breakdownQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	tier, ok := salary.ParseTier(q.Tier)
	if !ok {
		apierrors.BadRequest(c, "Unknown experience tier")
		return
	}

	variable := float64(salary.DefaultVariableCTC)
	if q.Variable != nil {
		variable = *q.Variable
	}

	b := salary.Derive(q.CTC, tier, variable)
	c.JSON(http.StatusOK, breakdownResponse{Breakdown: b, NegativeBalance: b.NegativeBalance()})
}

// ListTiers returns every experience tier with its monthly basic
func (h *SalaryHandler) ListTiers(c *gin.Context) {
	type tierDTO struct {
		Tier  salary.Tier `json:"tier"`
		Basic float64     `json:"basic"`
	}
	tiers := salary.Tiers()
	out := make([]tierDTO, len(tiers))
	for i, t := range tiers {
		out[i] = tierDTO{Tier: t, Basic: salary.BasicFor(t)}
	}
	c.JSON(http.StatusOK, gin.H{"tiers": out})
}
