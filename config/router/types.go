package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

type ServiceResult struct {
	StatusCode int    `json:"code"`
	Data       any    `json:"data"`
	Message    string `json:"message"`

	// Body, when set, is written as-is instead of the code/data/message envelope.
	Body any `json:"-"`
}

// CORSPolicy is a fixed set of CORS response headers for one route.
type CORSPolicy struct {
	AllowOrigin  string
	AllowHeaders string
	AllowMethods string
}

func (policy CORSPolicy) apply(h http.Header) {
	h.Set("Access-Control-Allow-Origin", policy.AllowOrigin)
	h.Set("Access-Control-Allow-Headers", policy.AllowHeaders)
	h.Set("Access-Control-Allow-Methods", policy.AllowMethods)
}

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	version      string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

func (result *ServiceResult) ToJSON() any {
	if result.Body != nil {
		return result.Body
	}

	return gin.H{
		"code":    result.StatusCode,
		"data":    result.Data,
		"message": result.Message,
	}
}
