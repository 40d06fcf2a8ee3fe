package handlers

import (
	"net/http"

	"restaurant-api/apperror"

	"github.com/gin-gonic/gin"
)

// envelope is the body of every API response
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondList(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, envelope{Success: true, Count: &count, Data: data})
}

// respondError maps err onto its status code. Internal failures are attached
// to the context for the request logger and never shown to the client.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, envelope{Success: false, Message: apperror.PublicMessage(err)})
}

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Message: bindingMessage(err)})
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, envelope{Success: false, Message: "Route not found - " + c.Request.URL.Path})
}
