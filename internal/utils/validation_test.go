package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type profileRequest struct {
	Username  string `json:"username" binding:"required,max=5"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
	Owner     string `json:"user" binding:"omitempty,uuid"`
}

func bindBody(body string) (*httptest.ResponseRecorder, bool) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var req profileRequest
	return w, BindJSON(c, &req)
}

func TestBindJSONFieldErrors(t *testing.T) {
	w, ok := bindBody(`{"username":"toolong","avatar_url":"nope","user":"x"}`)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{
		"username":["Ensure this field has no more than 5 characters."],
		"avatar_url":["Enter a valid URL."],
		"user":["Must be a valid UUID."]
	}`, w.Body.String())
}

func TestBindJSONEmptyBodyReportsRequired(t *testing.T) {
	w, ok := bindBody(``)
	assert.False(t, ok)
	assert.JSONEq(t, `{"username":["This field is required."]}`, w.Body.String())
}

func TestBindJSONMalformed(t *testing.T) {
	w, ok := bindBody(`{"username":`)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "JSON parse error")
}

func TestBindJSONWrongType(t *testing.T) {
	w, ok := bindBody(`{"username":12}`)
	assert.False(t, ok)
	assert.JSONEq(t, `{"username":["Incorrect type."]}`, w.Body.String())
}

func TestBindJSONValid(t *testing.T) {
	w, ok := bindBody(`{"username":"ann"}`)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, w.Code)
}
