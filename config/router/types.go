package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is what every handler returns; it is rendered as the
// {code,data,message} envelope.
type ServiceResult struct {
	StatusCode int    `json:"code"`
	Data       any    `json:"data"`
	Message    string `json:"message"`

	headers http.Header
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	version      string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

type envelope struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func (result *ServiceResult) ToJSON() any {
	return envelope{Code: result.StatusCode, Data: result.Data, Message: result.Message}
}

// WithHeader adds a response header, e.g. Cache-Control for responses that carry personal data.
func (result *ServiceResult) WithHeader(key, value string) *ServiceResult {
	if result.headers == nil {
		result.headers = http.Header{}
	}
	result.headers.Add(key, value)
	return result
}

// NoStore marks the response as not cacheable by browsers or proxies.
func (result *ServiceResult) NoStore() *ServiceResult {
	return result.WithHeader("Cache-Control", "no-store")
}

func (result *ServiceResult) writeHeaders(w http.ResponseWriter) {
	for key, values := range result.headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
}

func (result *ServiceResult) IsSuccess() bool {
	return result.StatusCode >= 200 && result.StatusCode < 300
}

func (result *ServiceResult) IsError() bool {
	return result.StatusCode >= 400
}
