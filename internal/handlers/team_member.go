package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-allocation-api/internal/dto"
	apierrors "github.com/yukikurage/team-allocation-api/internal/errors"
	"github.com/yukikurage/team-allocation-api/internal/middleware"
	"github.com/yukikurage/team-allocation-api/internal/services"
	"go.uber.org/zap"
)

type TeamMemberHandler struct {
	service *services.TeamMemberService
	log     *zap.Logger
}

func NewTeamMemberHandler(service *services.TeamMemberService, log *zap.Logger) *TeamMemberHandler {
	return &TeamMemberHandler{service: service, log: log}
}

// ListProjectMembers returns the active roster of the project
func (h *TeamMemberHandler) ListProjectMembers(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	members, err := h.service.ListProjectMembers(project.ID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.TeamMemberListDTO{Members: dto.ToMemberships(members)})
}

// GetCapacity reports how the roster stands against the team ceilings
func (h *TeamMemberHandler) GetCapacity(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	result, err := h.service.CapacityFor(project.ID, c.Query("role"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AddToProject adds a user to a project
func (h *TeamMemberHandler) AddToProject(c *gin.Context) {
	var req dto.AddTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	allocation := 100
	if req.AllocationPercentage != nil {
		allocation = *req.AllocationPercentage
	}

	member, err := h.service.AddToProject(services.AddToProjectInput{
		ProjectID:            req.ProjectID,
		UserID:               req.UserID,
		Role:                 req.Role,
		IsTeamLead:           req.IsTeamLead,
		AllocationPercentage: allocation,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMembership(*member))
}

// UpdateMember changes role, lead flag or allocation of a membership
func (h *TeamMemberHandler) UpdateMember(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	member, err := h.service.UpdateMember(services.UpdateMemberInput{
		ProjectID:            project.ID,
		UserID:               userID,
		Role:                 req.Role,
		IsTeamLead:           req.IsTeamLead,
		AllocationPercentage: req.AllocationPercentage,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembership(*member))
}

// RemoveFromProject removes a user from a project. Removing a non-member
// succeeds with removed=false.
func (h *TeamMemberHandler) RemoveFromProject(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	removed, err := h.service.RemoveFromProject(project.ID, userID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func parseUserID(c *gin.Context) (uint64, bool) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		apierrors.BadRequest(c, "Invalid user ID")
		return 0, false
	}
	return userID, true
}
