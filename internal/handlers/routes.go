package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-allocation-api/internal/middleware"
	"github.com/yukikurage/team-allocation-api/internal/repository"
)

// Handlers groups every API handler.
type Handlers struct {
	TeamMembers *TeamMemberHandler
	Users       *UserHandler
	Projects    *ProjectHandler
	Salary      *SalaryHandler
	Allocations *AllocationHandler
}

// RegisterRoutes mounts the API under api.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, projects repository.ProjectRepository) {
	requireProject := middleware.RequireProject(projects)

	members := api.Group("/project-team-members")
	{
		members.POST("/add-to-project", h.TeamMembers.AddToProject)
		members.GET("/project/:projectId", requireProject, h.TeamMembers.ListProjectMembers)
		members.GET("/project/:projectId/capacity", requireProject, h.TeamMembers.GetCapacity)
		members.PATCH("/project/:projectId/user/:userId", requireProject, h.TeamMembers.UpdateMember)
		members.DELETE("/project/:projectId/user/:userId", requireProject, h.TeamMembers.RemoveFromProject)
	}

	users := api.Group("/users")
	{
		users.GET("", h.Users.ListUsers)
		users.POST("", h.Users.CreateUser)
		users.GET("/suggest", h.Users.SuggestFromName)
		users.GET("/:userId", h.Users.GetUser)
	}

	projectRoutes := api.Group("/projects")
	{
		projectRoutes.GET("", h.Projects.ListProjects)
		projectRoutes.POST("", h.Projects.CreateProject)
		projectRoutes.GET("/:projectId", requireProject, h.Projects.GetProject)
	}

	salaryRoutes := api.Group("/salary")
	{
		salaryRoutes.GET("/breakdown", h.Salary.Breakdown)
		salaryRoutes.GET("/tiers", h.Salary.ListTiers)
	}

	api.GET("/allocations/overview", h.Allocations.Overview)
}
