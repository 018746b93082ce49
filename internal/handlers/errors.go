package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/team-allocation-api/internal/errors"
	"github.com/yukikurage/team-allocation-api/internal/services"
	"go.uber.org/zap"
)

// respondBindError reports a request that failed binding, listing the
// offending fields when validation produced them.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		code := apierrors.ErrCodeInvalidInput
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = validationMessage(fe)
			if fe.Tag() == "required" {
				code = apierrors.ErrCodeMissingField
			}
		}
		apierrors.RespondWithError(c, http.StatusBadRequest, apierrors.NewAPIErrorWithDetails(code, "Validation failed", details))
		return
	}
	apierrors.RespondWithError(c, http.StatusBadRequest, apierrors.NewAPIError(apierrors.ErrCodeInvalidFormat, "Invalid request body"))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// respondServiceError maps service errors onto the API error envelope.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrAlreadyProjectMember):
		apierrors.ConflictWithCode(c, apierrors.ErrCodeAlreadyExists, "User is already a member of this project")
	case errors.Is(err, services.ErrTeamAtCapacity):
		apierrors.ConflictWithCode(c, apierrors.ErrCodeTeamAtCapacity, "Project team is at capacity")
	case errors.Is(err, services.ErrManagerLimitReached):
		apierrors.ConflictWithCode(c, apierrors.ErrCodeManagerLimitReached, "Project already has the maximum number of managers")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.ConflictWithCode(c, apierrors.ErrCodeAlreadyExists, "Email is already in use")
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrProjectMemberNotFound):
		apierrors.NotFound(c, capitalize(err.Error()))
	case errors.Is(err, services.ErrRoleRequired),
		errors.Is(err, services.ErrInvalidAllocation),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidTier),
		errors.Is(err, services.ErrInvalidAvailability),
		errors.Is(err, services.ErrInvalidCTC),
		errors.Is(err, services.ErrProjectNameRequired),
		errors.Is(err, services.ErrInvalidProjectStatus),
		errors.Is(err, services.ErrInvalidDateRange):
		apierrors.BadRequest(c, capitalize(err.Error()))
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		apierrors.InternalError(c, "")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
