package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"raffle-platform/internal/handler"
	"raffle-platform/internal/middleware"
	"raffle-platform/internal/model"

	"github.com/gin-gonic/gin"
)

var (
	InvalidJSON = `{"invalid": json}`

	testUser  = model.Actor{UserID: 7, Role: model.RoleUser}
	testAdmin = model.Actor{UserID: 1, Role: model.RoleAdmin, IsMaster: true}
)

// setupRouter 以固定身分取代 token 驗證
func setupRouter(actor model.Actor, register func(routes handler.Routes)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(handler.NewRoutes(router, middleware.SetActor(actor)))
	return router
}

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	if s, ok := data.(string); ok {
		return bytes.NewBufferString(s)
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create HTTP request with JSON body
func createJSONHTTPRequest(method, url string, data interface{}) *http.Request {
	req, err := http.NewRequest(method, url, createJSONRequest(data))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}
