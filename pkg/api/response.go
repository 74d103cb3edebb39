package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response common response envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Success 200 with data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Created 201 with data
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

// Error error response; err may be nil
func Error(c *gin.Context, code int, message string, err error) {
	ErrorWithData(c, code, message, err, nil)
}

// ErrorWithData error response that also carries data the client acts on,
// such as a warning flag or a retry delay
func ErrorWithData(c *gin.Context, code int, message string, err error, data interface{}) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	resp := Response{
		Code:    code,
		Message: message,
		Data:    data,
	}
	if errMsg != "" {
		resp.Error = errMsg
	}
	c.JSON(code, resp)
}
