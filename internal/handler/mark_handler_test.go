package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMarkHandlerUpsertSubjectMarkInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMarkHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/marks/subject", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.UpsertSubjectMark(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkHandlerListParameterMarksMissingQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMarkHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/marks/parameter?studentId=stu-1", nil)
	c.Request = req

	handler.ListParameterMarks(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkHandlerListSubjectMarksBadSemester(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMarkHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/marks/subject?semester=abc", nil)
	c.Request = req

	handler.ListSubjectMarks(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
