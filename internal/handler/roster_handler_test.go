package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learning-gap-api/internal/dto"
)

func currentUser(t *testing.T, env *testEnv, token string) dto.UserResponse {
	t.Helper()
	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var user dto.UserResponse
	decodeData(t, resp, &user)
	return user
}

func TestRosterDashboardAndStatusUpdate(t *testing.T) {
	env := setupTestEnv(t)
	teacher := env.registerAndLogin(t, "guru", "teacher")
	rina := env.registerAndLogin(t, "rina", "student")
	env.registerAndLogin(t, "budi", "student")
	rinaID := currentUser(t, env, rina).ID

	assignment := createAssignment(t, env, teacher, "Essay", "2024-05-01")
	resp := env.doMultipart(t, fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID), rina,
		map[string]string{"submission_text": "my essay"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/roster/students/%d", rinaID), teacher,
		map[string]string{"attendance": "Present", "risk_level": "Medium"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated dto.RosterStudent
	body := decodeData(t, resp, &updated)
	require.Equal(t, "Student updated successfully!", body.Message)
	require.Equal(t, "Present", updated.Attendance)
	require.Equal(t, "Medium", updated.RiskLevel)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/roster?class=7A", nil), teacher)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var dashboard dto.ClassDashboard
	decodeData(t, resp, &dashboard)
	require.Equal(t, "7A", dashboard.Class)
	require.Equal(t, 2, dashboard.TotalStudents)
	require.Equal(t, 1, dashboard.PresentToday)
	require.Equal(t, 1, dashboard.AbsentToday)
	require.Len(t, dashboard.Students, 2)
	require.Equal(t, "Name budi", dashboard.Students[0].Name)
	require.Equal(t, "Absent", dashboard.Students[0].Attendance)
	require.NotNil(t, dashboard.Students[0].LastActive)
	require.Len(t, dashboard.Submissions, 1)
	require.Equal(t, "Essay", dashboard.Submissions[0].AssignmentTitle)
	require.Equal(t, "Name rina", dashboard.Submissions[0].StudentName)
}

func TestRosterRejections(t *testing.T) {
	env := setupTestEnv(t)
	teacher := env.registerAndLogin(t, "guru", "teacher")
	teacherID := currentUser(t, env, teacher).ID

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/roster?class=7A", nil), "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/roster", nil), teacher)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPatch, "/api/v1/roster/students/999", teacher, map[string]string{"attendance": "Present"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/roster/students/%d", teacherID), teacher, map[string]string{"attendance": "Present"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPatch, "/api/v1/roster/students/1", teacher, map[string]string{"attendance": "Late"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var body envelope
	decodeResponse(t, resp, &body)
	require.JSONEq(t, `{"Attendance":"oneof=Present Absent"}`, string(body.Details))

	resp = env.doJSON(t, http.MethodPatch, "/api/v1/roster/students/1", teacher, map[string]string{})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
