package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-allocation-api/internal/dto"
	"github.com/yukikurage/team-allocation-api/internal/middleware"
	"github.com/yukikurage/team-allocation-api/internal/models"
	"github.com/yukikurage/team-allocation-api/internal/services"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	service *services.ProjectService
	log     *zap.Logger
}

func NewProjectHandler(service *services.ProjectService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, log: log}
}

// ListProjects returns all projects, optionally filtered by ?status=
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var status *models.ProjectStatus
	if s := c.Query("status"); s != "" {
		ps := models.ProjectStatus(s)
		status = &ps
	}

	projects, err := h.service.ListProjects(status)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": dto.ToProjectDTOs(projects)})
}

// GetProject returns the project loaded by RequireProject
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	c.JSON(http.StatusOK, dto.ToProjectDTO(project))
}

// CreateProject creates a project
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	project, err := h.service.CreateProject(services.CreateProjectInput{
		Name:      req.Name,
		Status:    models.ProjectStatus(req.Status),
		ManagerID: req.ManagerID,
		Budget:    req.Budget,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}
