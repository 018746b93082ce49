// Package server assembles the HTTP router from its repositories, services
// and handlers.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-allocation-api/internal/capacity"
	"github.com/yukikurage/team-allocation-api/internal/constants"
	"github.com/yukikurage/team-allocation-api/internal/handlers"
	"github.com/yukikurage/team-allocation-api/internal/metrics"
	"github.com/yukikurage/team-allocation-api/internal/middleware"
	"github.com/yukikurage/team-allocation-api/internal/repository"
	"github.com/yukikurage/team-allocation-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	DB             *gorm.DB
	Capacity       capacity.Validator
	Log            *zap.Logger
	Metrics        *metrics.Registry
	AllowedOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  d.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", constants.HeaderRequestID},
			ExposeHeaders: []string{constants.HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}

	userRepo := repository.NewUserRepository(d.DB)
	projectRepo := repository.NewProjectRepository(d.DB)
	memberRepo := repository.NewTeamMemberRepository(d.DB)

	teamService := services.NewTeamMemberService(memberRepo, projectRepo, userRepo, d.Capacity, log)
	if d.Metrics != nil {
		teamService.SetObserver(d.Metrics)
	}

	r.GET("/health", handlers.Health(d.DB))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	handlers.RegisterRoutes(r.Group("/api"), handlers.Handlers{
		TeamMembers: handlers.NewTeamMemberHandler(teamService, log),
		Users:       handlers.NewUserHandler(services.NewUserService(userRepo), log),
		Projects:    handlers.NewProjectHandler(services.NewProjectService(projectRepo, userRepo), log),
		Salary:      handlers.NewSalaryHandler(),
		Allocations: handlers.NewAllocationHandler(services.NewAllocationService(userRepo, projectRepo, memberRepo), log),
	}, projectRepo)

	return r
}
