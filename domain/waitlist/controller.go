package waitlist

import (
	"github.com/akeren/archive-waitlist/config/router"
	apperrors "github.com/akeren/archive-waitlist/pkg/errors"
)

func NewWaitlistController(factory WaitlistServiceFactory) *router.RESTController {
	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			service := factory.CreateService(rs.MetricsRegisterer())

			rs.AddPostHandler(c, "", joinWaitlistHandler(service))
			rs.AddGetHandler(c, "", listWaitlistEntriesHandler(service))
		},
	)
}

func joinWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req JoinWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Error("Failed to bind request", "error", err)

			if tooLarge := router.PayloadTooLargeResult(err); tooLarge != nil {
				return tooLarge
			}

			validationErrors := apperrors.FormatValidationErrors(err, &req)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}

			return router.BadRequestResult("Invalid request body", nil)
		}

		response, err := service.Join(ctx.Request.Context(), &req)
		if err != nil {
			if validationErrors := apperrors.FormatValidationErrors(err, &req); len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "You have joined the waitlist")
	}
}

func listWaitlistEntriesHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.ListEntries(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Waitlist entries retrieved successfully").NoStore()
	}
}
