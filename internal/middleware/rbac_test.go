package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campushub/result-api/internal/models"
)

func performRBAC(claims *models.JWTClaims, params gin.Params, allowed ...string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = params
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	RBAC(allowed...)(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRBACAllowsListedRole(t *testing.T) {
	w := performRBAC(&models.JWTClaims{UserID: "usr-1", Role: models.RoleAdmin}, nil, "ADMIN", "TEACHER")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	w := performRBAC(&models.JWTClaims{UserID: "usr-1", Role: models.RoleStudent}, nil, "ADMIN")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACRequiresClaims(t *testing.T) {
	w := performRBAC(nil, nil, "ADMIN")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACSelfMatchesStudentID(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleStudent, StudentID: "stu-1"}
	params := gin.Params{{Key: "id", Value: "stu-1"}}

	w := performRBAC(claims, params, "ADMIN", "SELF")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRBACSelfRejectsOtherStudent(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleStudent, StudentID: "stu-1"}
	params := gin.Params{{Key: "id", Value: "stu-2"}}

	w := performRBAC(claims, params, "ADMIN", "SELF")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
