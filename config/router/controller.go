package router

import (
	"fmt"
	"net/http"
	"path"
	"slices"

	"github.com/gin-gonic/gin"
)

// routeKey identifies one method on one path across every mounted controller.
type routeKey struct {
	method string
	path   string
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanRoute(mountPoint),
		prepare:    prepare,
	}
}

// NewVersionedRESTController mounts the controller under /<version>/<mountPoint>.
func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	controller := NewRESTController(name, version+"/"+mountPoint, prepare)
	controller.version = version
	return controller
}

// cleanRoute makes p absolute and drops duplicate and trailing slashes.
func cleanRoute(p string) string {
	return path.Clean("/" + p)
}

func (controller *RESTController) route(relativePath string) string {
	return cleanRoute(controller.mountPoint + "/" + relativePath)
}

func (routerService *RouterService) register(controller *RESTController, method, relativePath string, chain []gin.HandlerFunc) {
	route := controller.route(relativePath)
	key := routeKey{method: method, path: route}

	if owner, taken := routerService.routes[key]; taken {
		panic(fmt.Sprintf("router: %s %s is already registered by %s", method, route, owner.name))
	}
	routerService.routes[key] = controller
	controller.handlerCount++

	routerService.engine.Handle(method, route, chain...)
	routerService.logger.Debug("Route registered", "controller", controller.name, "method", method, "path", route)
}

// render writes a handler's ServiceResult as the JSON envelope.
func render(handler HandlerFunction) gin.HandlerFunc {
	return func(c *RequestContext) {
		result := handler(c)

		switch {
		case result == nil:
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("Handler produced no result").ToJSON())
		case c.Writer.Written():
			// RedirectResult already responded.
		default:
			result.writeHeaders(c.Writer)
			c.JSON(result.StatusCode, result.ToJSON())
		}
	}
}

func withFinal(middlewares []MiddlewareFunc, final gin.HandlerFunc) []gin.HandlerFunc {
	return append(slices.Clip(middlewares), final)
}

func (routerService *RouterService) AddGetHandler(controller *RESTController, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.register(controller, http.MethodGet, path, withFinal(middlewares, render(handler)))
}

func (routerService *RouterService) AddPostHandler(controller *RESTController, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.register(controller, http.MethodPost, path, withFinal(middlewares, render(handler)))
}

// AddHTTPGetHandler mounts a net/http handler that writes its own response
// outside the envelope, such as the healthcheck probes.
func (routerService *RouterService) AddHTTPGetHandler(controller *RESTController, path string, handler http.Handler, middlewares ...MiddlewareFunc) {
	routerService.register(controller, http.MethodGet, path, withFinal(middlewares, gin.WrapH(handler)))
}
