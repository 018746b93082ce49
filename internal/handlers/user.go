package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-allocation-api/internal/dto"
	apierrors "github.com/yukikurage/team-allocation-api/internal/errors"
	"github.com/yukikurage/team-allocation-api/internal/models"
	"github.com/yukikurage/team-allocation-api/internal/services"
	"github.com/yukikurage/team-allocation-api/internal/suggest"
	"github.com/yukikurage/team-allocation-api/internal/utils"
	"go.uber.org/zap"
)

type UserHandler struct {
	service *services.UserService
	log     *zap.Logger
}

func NewUserHandler(service *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

type listUsersQuery struct {
	Search       string `form:"search"`
	DepartmentID uint64 `form:"department_id"`
	DomainID     uint64 `form:"domain_id"`
	Role         string `form:"role"`
}

// ListUsers returns a page of users matching the query filters
func (h *UserHandler) ListUsers(c *gin.Context) {
	var query listUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters")
		return
	}
	page := utils.ParsePage(c)

	role := strings.ToLower(strings.TrimSpace(query.Role))
	if role == "all" {
		role = ""
	}

	users, total, err := h.service.ListUsers(services.ListUsersInput{
		Search:       query.Search,
		DepartmentID: query.DepartmentID,
		DomainID:     query.DomainID,
		Role:         models.UserRole(role),
		Page:         page.Number,
		PageSize:     page.Size,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	out := make([]dto.UserDTO, len(users))
	for i, u := range users {
		out[i] = dto.ToUserDTO(u)
	}
	c.JSON(http.StatusOK, dto.UserListDTO{
		Users:      out,
		Pagination: page.Describe(total),
	})
}

// GetUser returns a single user
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(userID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// CreateUser creates a user
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.service.CreateUser(services.CreateUserInput{
		Name:                   req.Name,
		Email:                  req.Email,
		Role:                   req.Role,
		DepartmentID:           req.DepartmentID,
		DomainID:               req.DomainID,
		ExperienceTier:         req.ExperienceTier,
		Skills:                 req.Skills,
		AnnualCTC:              req.AnnualCTC,
		BaseHourlyRate:         req.BaseHourlyRate,
		AvailabilityPercentage: req.AvailabilityPercentage,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// SuggestFromName returns role, domain and department hints for a name
func (h *UserHandler) SuggestFromName(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		apierrors.BadRequest(c, "name is required")
		return
	}
	c.JSON(http.StatusOK, suggest.FromName(name))
}
