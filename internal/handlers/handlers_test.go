package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/team-allocation-api/internal/allocation"
	"github.com/yukikurage/team-allocation-api/internal/capacity"
	"github.com/yukikurage/team-allocation-api/internal/dto"
	apierrors "github.com/yukikurage/team-allocation-api/internal/errors"
	"github.com/yukikurage/team-allocation-api/internal/membership"
	"github.com/yukikurage/team-allocation-api/internal/models"
	"github.com/yukikurage/team-allocation-api/internal/repository"
	"github.com/yukikurage/team-allocation-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// APITestSuite drives the real router against an in-memory database
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (suite *APITestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	err = suite.db.AutoMigrate(&models.User{}, &models.Project{}, &models.ProjectTeamMember{})
	suite.Require().NoError(err)

	gin.SetMode(gin.TestMode)
	suite.router = newTestRouter(suite.db, capacity.Validator{MaxTeamSize: 3})
}

func (suite *APITestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func newTestRouter(db *gorm.DB, validator capacity.Validator) *gin.Engine {
	log := zap.NewNop()
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	memberRepo := repository.NewTeamMemberRepository(db)

	r := gin.New()
	r.GET("/health", Health(db))
	RegisterRoutes(r.Group("/api"), Handlers{
		TeamMembers: NewTeamMemberHandler(services.NewTeamMemberService(memberRepo, projectRepo, userRepo, validator, log), log),
		Users:       NewUserHandler(services.NewUserService(userRepo), log),
		Projects:    NewProjectHandler(services.NewProjectService(projectRepo, userRepo), log),
		Salary:      NewSalaryHandler(),
		Allocations: NewAllocationHandler(services.NewAllocationService(userRepo, projectRepo, memberRepo), log),
	}, projectRepo)
	return r
}

func (suite *APITestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) decode(w *httptest.ResponseRecorder, out interface{}) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (suite *APITestSuite) createUser(name string, role models.UserRole) *models.User {
	user := &models.User{
		Name:                   name,
		Email:                  fmt.Sprintf("%s@example.com", name),
		Role:                   role,
		ExperienceTier:         "E2",
		AvailabilityPercentage: 100,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *APITestSuite) createProject(name string) *models.Project {
	project := &models.Project{Name: name, Status: models.ProjectStatusActive}
	suite.Require().NoError(suite.db.Create(project).Error)
	return project
}

func (suite *APITestSuite) add(projectID, userID uint64, role string, pct int) *httptest.ResponseRecorder {
	return suite.do(http.MethodPost, "/api/project-team-members/add-to-project", map[string]interface{}{
		"projectId":            projectID,
		"userId":               userID,
		"role":                 role,
		"allocationPercentage": pct,
	})
}

func (suite *APITestSuite) TestAddToProject_Created() {
	project := suite.createProject("Atlas")
	user := suite.createUser("ana", models.RoleDeveloper)

	w := suite.add(project.ID, user.ID, "developer", 60)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var member membership.Membership
	suite.decode(w, &member)
	suite.Equal(project.ID, member.ProjectID)
	suite.Equal(user.ID, member.UserID)
	suite.Equal(60, member.AllocationPercentage)
	suite.True(member.IsActive)
	suite.Require().NotNil(member.User)
	suite.Equal("ana", member.User.Name)
}

func (suite *APITestSuite) TestAddToProject_Duplicate() {
	project := suite.createProject("Atlas")
	user := suite.createUser("ana", models.RoleDeveloper)

	suite.Require().Equal(http.StatusCreated, suite.add(project.ID, user.ID, "developer", 50).Code)

	w := suite.add(project.ID, user.ID, "developer", 50)
	suite.Equal(http.StatusConflict, w.Code)

	var apiErr apierrors.APIError
	suite.decode(w, &apiErr)
	suite.Equal(apierrors.ErrCodeAlreadyExists, apiErr.Code)
	suite.Equal("User is already a member of this project", apiErr.Message)
}

func (suite *APITestSuite) TestAddToProject_AtCapacity() {
	project := suite.createProject("Atlas")
	for i := 0; i < 3; i++ {
		user := suite.createUser(fmt.Sprintf("dev%d", i), models.RoleDeveloper)
		suite.Require().Equal(http.StatusCreated, suite.add(project.ID, user.ID, "developer", 20).Code)
	}

	extra := suite.createUser("extra", models.RoleDeveloper)
	w := suite.add(project.ID, extra.ID, "developer", 20)
	suite.Equal(http.StatusConflict, w.Code)

	var apiErr apierrors.APIError
	suite.decode(w, &apiErr)
	suite.Equal(apierrors.ErrCodeTeamAtCapacity, apiErr.Code)

	w = suite.do(http.MethodGet, fmt.Sprintf("/api/project-team-members/project/%d/capacity", project.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var result capacity.Result
	suite.decode(w, &result)
	suite.True(result.IsAtCapacity)
	suite.Equal(3, result.ActiveCount)
}

func (suite *APITestSuite) TestAddToProject_Validation() {
	project := suite.createProject("Atlas")
	user := suite.createUser("ana", models.RoleDeveloper)

	w := suite.add(project.ID, user.ID, "developer", 150)
	suite.Equal(http.StatusBadRequest, w.Code)

	var apiErr apierrors.APIError
	suite.decode(w, &apiErr)
	suite.Equal(apierrors.ErrCodeInvalidInput, apiErr.Code)
	suite.NotNil(apiErr.Details)

	w = suite.add(999, user.ID, "developer", 50)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.add(project.ID, 999, "developer", 50)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestListProjectMembers() {
	project := suite.createProject("Atlas")
	ana := suite.createUser("ana", models.RoleDeveloper)
	ben := suite.createUser("ben", models.RoleDesigner)
	suite.Require().Equal(http.StatusCreated, suite.add(project.ID, ana.ID, "developer", 50).Code)
	suite.Require().Equal(http.StatusCreated, suite.add(project.ID, ben.ID, "designer", 30).Code)

	w := suite.do(http.MethodGet, fmt.Sprintf("/api/project-team-members/project/%d", project.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"allocationPercentage":30`)

	var body dto.TeamMemberListDTO
	suite.decode(w, &body)
	suite.Len(body.Members, 2)

	w = suite.do(http.MethodGet, "/api/project-team-members/project/999", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestRemoveFromProject_IdempotentAndReactivates() {
	project := suite.createProject("Atlas")
	ana := suite.createUser("ana", models.RoleDeveloper)

	w := suite.add(project.ID, ana.ID, "developer", 50)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var first membership.Membership
	suite.decode(w, &first)

	path := fmt.Sprintf("/api/project-team-members/project/%d/user/%d", project.ID, ana.ID)
	w = suite.do(http.MethodDelete, path, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"removed":true}`, w.Body.String())

	w = suite.do(http.MethodDelete, path, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"removed":false}`, w.Body.String())

	w = suite.add(project.ID, ana.ID, "developer", 80)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var again membership.Membership
	suite.decode(w, &again)
	suite.Equal(first.ID, again.ID)
	suite.Equal(80, again.AllocationPercentage)
	suite.True(again.IsActive)
}

func (suite *APITestSuite) TestRemoveFromProject_ReassignsManager() {
	project := suite.createProject("Atlas")
	pm := suite.createUser("pm", models.RoleManager)
	lead := suite.createUser("lead", models.RoleManager)

	suite.Require().Equal(http.StatusCreated, suite.add(project.ID, pm.ID, "manager", 50).Code)
	w := suite.do(http.MethodPost, "/api/project-team-members/add-to-project", map[string]interface{}{
		"projectId": project.ID, "userId": lead.ID, "role": "manager", "isTeamLead": true,
	})
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.do(http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil)
	var before dto.ProjectDTO
	suite.decode(w, &before)
	suite.Require().NotNil(before.ManagerID)
	suite.Equal(pm.ID, *before.ManagerID)

	w = suite.do(http.MethodDelete, fmt.Sprintf("/api/project-team-members/project/%d/user/%d", project.ID, pm.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil)
	var after dto.ProjectDTO
	suite.decode(w, &after)
	suite.Require().NotNil(after.ManagerID)
	suite.Equal(lead.ID, *after.ManagerID)
}

func (suite *APITestSuite) TestUpdateMember() {
	project := suite.createProject("Atlas")
	ana := suite.createUser("ana", models.RoleDeveloper)
	suite.Require().Equal(http.StatusCreated, suite.add(project.ID, ana.ID, "developer", 50).Code)

	path := fmt.Sprintf("/api/project-team-members/project/%d/user/%d", project.ID, ana.ID)
	w := suite.do(http.MethodPatch, path, map[string]interface{}{"allocationPercentage": 75, "isTeamLead": true})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var member membership.Membership
	suite.decode(w, &member)
	suite.Equal(75, member.AllocationPercentage)
	suite.True(member.IsTeamLead)
	suite.Equal("developer", member.Role)

	w = suite.do(http.MethodPatch, fmt.Sprintf("/api/project-team-members/project/%d/user/%d", project.ID, 999), map[string]interface{}{"isTeamLead": true})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestCreateUser_DerivesHourlyRate() {
	w := suite.do(http.MethodPost, "/api/users", map[string]interface{}{
		"name":            "Ravi Kumar",
		"email":           "Ravi@Example.com",
		"experience_tier": "E1",
		"annual_ctc":      600000,
		"skills":          []string{"go", "sql"},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var user dto.UserDTO
	suite.decode(w, &user)
	suite.Equal("ravi@example.com", user.Email)
	suite.Equal(models.RoleDeveloper, user.Role)
	suite.InDelta(260.41, user.BaseHourlyRate, 0.001)
	suite.Equal([]string{"go", "sql"}, user.Skills)
	suite.Equal(100, user.AvailabilityPercentage)

	w = suite.do(http.MethodPost, "/api/users", map[string]interface{}{
		"name":  "Ravi Again",
		"email": "ravi@example.com",
	})
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodGet, fmt.Sprintf("/api/users/%d", user.ID), nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestCreateUser_RoleFromName() {
	w := suite.do(http.MethodPost, "/api/users", map[string]interface{}{
		"name":  "Dana (Project Manager)",
		"email": "dana@example.com",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var user dto.UserDTO
	suite.decode(w, &user)
	suite.Equal(models.RoleManager, user.Role)
}

func (suite *APITestSuite) TestListUsers_Filters() {
	suite.createUser("ana", models.RoleDeveloper)
	suite.createUser("ben", models.RoleDesigner)
	suite.createUser("cara", models.RoleDeveloper)

	w := suite.do(http.MethodGet, "/api/users?role=developer&limit=1&page=2", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var page dto.UserListDTO
	suite.decode(w, &page)
	suite.Equal(int64(2), page.Pagination.Total)
	suite.Require().Len(page.Users, 1)
	suite.Equal("cara", page.Users[0].Name)

	w = suite.do(http.MethodGet, "/api/users?search=BE", nil)
	suite.decode(w, &page)
	suite.Require().Len(page.Users, 1)
	suite.Equal("ben", page.Users[0].Name)
}

func (suite *APITestSuite) TestSuggest() {
	w := suite.do(http.MethodGet, "/api/users/suggest?name=Senior%20Backend%20Engineer", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"role":"developer"`)
	suite.Contains(w.Body.String(), `"domain":"backend"`)

	w = suite.do(http.MethodGet, "/api/users/suggest", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestCreateAndListProjects() {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)
	w := suite.do(http.MethodPost, "/api/projects", map[string]interface{}{
		"name": "Atlas", "status": "active", "budget": 120000, "start_date": start, "end_date": end,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/projects", map[string]interface{}{
		"name": "Backwards", "start_date": end, "end_date": start,
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/projects?status=active", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Projects []dto.ProjectDTO `json:"projects"`
	}
	suite.decode(w, &body)
	suite.Require().Len(body.Projects, 1)
	suite.Equal("Atlas", body.Projects[0].Name)
}

func (suite *APITestSuite) TestSalaryBreakdown() {
	w := suite.do(http.MethodGet, "/api/salary/breakdown?ctc=600000&tier=E1", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var body map[string]interface{}
	suite.decode(w, &body)
	suite.Equal("E1", body["tier"])
	suite.InDelta(260.41, body["hourly_rate"].(float64), 0.001)
	suite.Equal(false, body["negative_balance"])

	suite.Equal(http.StatusBadRequest, suite.do(http.MethodGet, "/api/salary/breakdown?tier=E1", nil).Code)
	suite.Equal(http.StatusBadRequest, suite.do(http.MethodGet, "/api/salary/breakdown?ctc=600000&tier=Z9", nil).Code)

	w = suite.do(http.MethodGet, "/api/salary/tiers", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"tier":"S1"`)
}

func (suite *APITestSuite) TestAllocationOverview() {
	atlas := suite.createProject("Atlas")
	borealis := suite.createProject("Borealis")
	ana := suite.createUser("ana", models.RoleDeveloper)
	ben := suite.createUser("ben", models.RoleDesigner)

	suite.Require().Equal(http.StatusCreated, suite.add(atlas.ID, ana.ID, "developer", 60).Code)
	suite.Require().Equal(http.StatusCreated, suite.add(borealis.ID, ana.ID, "developer", 50).Code)
	suite.Require().Equal(http.StatusCreated, suite.add(atlas.ID, ben.ID, "designer", 50).Code)

	w := suite.do(http.MethodGet, "/api/allocations/overview", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var overview allocation.Overview
	suite.decode(w, &overview)
	suite.Equal(2, overview.Stats.Count)
	suite.Equal(1, overview.Stats.OverloadedCount)
	suite.Require().Len(overview.Members, 2)
	suite.Equal("ana", overview.Members[0].Person.Name)
	suite.Equal(allocation.StatusOverloaded, overview.Members[0].Status)
	suite.Len(overview.Members[0].Projects, 2)

	w = suite.do(http.MethodGet, "/api/allocations/overview?role=designer", nil)
	suite.decode(w, &overview)
	suite.Equal(1, overview.Stats.Count)
	suite.Equal(0, overview.Stats.OverloadedCount)
	suite.Equal(50, overview.Stats.AverageUtilization)
}

func (suite *APITestSuite) TestUpdateMember_PromotionRespectsManagerCeiling() {
	suite.router = newTestRouter(suite.db, capacity.Validator{MaxTeamSize: 9, MaxManagers: 1})
	project := suite.createProject("Atlas")
	pm := suite.createUser("pm", models.RoleManager)
	ana := suite.createUser("ana", models.RoleDeveloper)

	suite.Require().Equal(http.StatusCreated, suite.add(project.ID, pm.ID, "manager", 50).Code)
	w := suite.add(project.ID, ana.ID, "manager", 50)
	suite.Require().Equal(http.StatusConflict, w.Code)
	suite.Require().Equal(http.StatusCreated, suite.add(project.ID, ana.ID, "developer", 50).Code)

	anaPath := fmt.Sprintf("/api/project-team-members/project/%d/user/%d", project.ID, ana.ID)
	w = suite.do(http.MethodPatch, anaPath, map[string]interface{}{"role": "manager"})
	suite.Require().Equal(http.StatusConflict, w.Code, w.Body.String())
	var apiErr apierrors.APIError
	suite.decode(w, &apiErr)
	suite.Equal(apierrors.ErrCodeManagerLimitReached, apiErr.Code)

	var managers int64
	suite.Require().NoError(suite.db.Model(&models.ProjectTeamMember{}).
		Where("project_id = ? AND is_active = ? AND role = ?", project.ID, true, "manager").
		Count(&managers).Error)
	suite.Equal(int64(1), managers)

	// other fields still update without touching the role
	w = suite.do(http.MethodPatch, anaPath, map[string]interface{}{"allocationPercentage": 70})
	suite.Require().Equal(http.StatusOK, w.Code)

	pmPath := fmt.Sprintf("/api/project-team-members/project/%d/user/%d", project.ID, pm.ID)
	w = suite.do(http.MethodPatch, pmPath, map[string]interface{}{"role": "manager", "isTeamLead": true})
	suite.Require().Equal(http.StatusOK, w.Code)
	w = suite.do(http.MethodPatch, pmPath, map[string]interface{}{"role": "developer"})
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPatch, anaPath, map[string]interface{}{"role": "manager"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var member membership.Membership
	suite.decode(w, &member)
	suite.Equal("manager", member.Role)
	suite.Equal(70, member.AllocationPercentage)
}

// submitAdds posts one add per user at the same time and returns the status codes.
func (suite *APITestSuite) submitAdds(projectID uint64, userIDs []uint64) []int {
	codes := make([]int, len(userIDs))
	var wg sync.WaitGroup
	for i, userID := range userIDs {
		wg.Add(1)
		go func(i int, userID uint64) {
			defer wg.Done()
			body := fmt.Sprintf(`{"projectId":%d,"userId":%d,"role":"developer","allocationPercentage":50}`, projectID, userID)
			req := httptest.NewRequest(http.MethodPost, "/api/project-team-members/add-to-project", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			suite.router.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i, userID)
	}
	wg.Wait()
	return codes
}

func countCodes(codes []int) map[int]int {
	out := map[int]int{}
	for _, c := range codes {
		out[c]++
	}
	return out
}

func (suite *APITestSuite) TestAddToProject_ConcurrentAddsStopAtCeiling() {
	project := suite.createProject("Atlas")
	var ids []uint64
	for i := 0; i < 6; i++ {
		ids = append(ids, suite.createUser(fmt.Sprintf("dev%d", i), models.RoleDeveloper).ID)
	}

	got := countCodes(suite.submitAdds(project.ID, ids))
	suite.Equal(3, got[http.StatusCreated])
	suite.Equal(3, got[http.StatusConflict])

	var active int64
	suite.Require().NoError(suite.db.Model(&models.ProjectTeamMember{}).
		Where("project_id = ? AND is_active = ?", project.ID, true).
		Count(&active).Error)
	suite.Equal(int64(3), active)
}

func (suite *APITestSuite) TestAddToProject_ConcurrentReaddHasOneWinner() {
	project := suite.createProject("Atlas")
	ana := suite.createUser("ana", models.RoleDeveloper)
	suite.Require().Equal(http.StatusCreated, suite.add(project.ID, ana.ID, "developer", 50).Code)
	path := fmt.Sprintf("/api/project-team-members/project/%d/user/%d", project.ID, ana.ID)
	suite.Require().Equal(http.StatusOK, suite.do(http.MethodDelete, path, nil).Code)

	got := countCodes(suite.submitAdds(project.ID, []uint64{ana.ID, ana.ID, ana.ID, ana.ID}))
	suite.Equal(1, got[http.StatusCreated])
	suite.Equal(3, got[http.StatusConflict])
}

func (suite *APITestSuite) TestBindErrorCodes() {
	w := suite.do(http.MethodPost, "/api/project-team-members/add-to-project", map[string]interface{}{"role": "developer"})
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	var apiErr apierrors.APIError
	suite.decode(w, &apiErr)
	suite.Equal(apierrors.ErrCodeMissingField, apiErr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/project-team-members/add-to-project", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	suite.decode(w, &apiErr)
	suite.Equal(apierrors.ErrCodeInvalidFormat, apiErr.Code)
}

func (suite *APITestSuite) TestHealth() {
	w := suite.do(http.MethodGet, "/health", nil)
	suite.Equal(http.StatusOK, w.Code)

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	suite.Require().NoError(sqlDB.Close())

	w = suite.do(http.MethodGet, "/health", nil)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
	var apiErr apierrors.APIError
	suite.decode(w, &apiErr)
	suite.Equal(apierrors.ErrCodeServiceUnavailable, apiErr.Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
