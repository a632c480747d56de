package router

import (
	"github.com/gin-gonic/gin"

	"github.com/vetcare/clinic-api/internal/handler"
	"github.com/vetcare/clinic-api/internal/middleware"
	"github.com/vetcare/clinic-api/internal/models"
	"github.com/vetcare/clinic-api/internal/service"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Availability *handler.AvailabilityHandler
	Schedules    *handler.ScheduleHandler
	Blocks       *handler.BlockHandler
	Holidays     *handler.HolidayHandler
	Appointments *handler.AppointmentHandler
	Vets         *handler.VetHandler
	Exports      *handler.ExportHandler
	Metrics      *handler.MetricsHandler
}

// Register mounts all API routes under prefix. Staff roles: ADMIN manages
// everything, RECEPTION books and manages the calendar, VET reads the whole
// calendar but mutates only their own schedule and blocks.
func Register(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	anyStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleReception, models.RoleVet)
	calendarWrite := middleware.RequireRoles(models.RoleAdmin, models.RoleReception)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	selfOrDesk := middleware.RBAC(string(models.RoleAdmin), string(models.RoleReception), middleware.VetSelf)

	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.GET("/auth/me", h.Auth.Me)

	availability := protected.Group("/availability", anyStaff)
	{
		availability.GET("", h.Availability.Range)
		availability.GET("/day", h.Availability.Day)
		availability.GET("/check", h.Availability.Check)
		availability.GET("/next", h.Availability.Next)
		availability.GET("/statistics", h.Availability.Statistics)
	}

	schedules := protected.Group("/schedules")
	{
		schedules.POST("", calendarWrite, h.Schedules.Create)
		schedules.POST("/bulk", calendarWrite, h.Schedules.BulkCreate)
		schedules.GET("/:id", anyStaff, h.Schedules.Get)
		schedules.PUT("/:id", calendarWrite, h.Schedules.Update)
		schedules.DELETE("/:id", calendarWrite, h.Schedules.Delete)
	}

	blocks := protected.Group("/blocks")
	{
		blocks.POST("", calendarWrite, h.Blocks.Create)
		blocks.POST("/recurring", calendarWrite, h.Blocks.CreateRecurring)
		blocks.PUT("/:id", calendarWrite, h.Blocks.Update)
		blocks.DELETE("/:id", calendarWrite, h.Blocks.Delete)
	}

	holidays := protected.Group("/holidays")
	{
		holidays.GET("", anyStaff, h.Holidays.List)
		holidays.GET("/check", anyStaff, h.Holidays.Check)
		holidays.GET("/statistics", anyStaff, h.Holidays.Statistics)
		holidays.POST("", adminOnly, h.Holidays.Create)
		holidays.POST("/bulk", adminOnly, h.Holidays.BulkCreate)
		holidays.DELETE("/:id", adminOnly, h.Holidays.Delete)
	}

	appointments := protected.Group("/appointments")
	{
		appointments.GET("", anyStaff, h.Appointments.List)
		appointments.GET("/:id", anyStaff, h.Appointments.Get)
		appointments.POST("", calendarWrite, h.Appointments.Create)
		appointments.PUT("/:id/reschedule", calendarWrite, h.Appointments.Reschedule)
		appointments.PATCH("/:id/status", anyStaff, h.Appointments.UpdateStatus)
		appointments.POST("/:id/cancel", calendarWrite, h.Appointments.Cancel)
	}

	vets := protected.Group("/vets")
	{
		vets.GET("", anyStaff, h.Vets.List)
		vets.GET("/:vetId", anyStaff, h.Vets.Get)
		vets.GET("/:vetId/schedules", anyStaff, h.Schedules.ListByVet)
		vets.GET("/:vetId/blocks", selfOrDesk, h.Blocks.ListByVet)
		vets.GET("/:vetId/blocks/statistics", selfOrDesk, h.Blocks.Statistics)
		if h.Exports != nil {
			vets.POST("/:vetId/agenda/export", selfOrDesk, h.Exports.Enqueue)
		}
	}

	protected.GET("/pets/:id", anyStaff, h.Vets.GetPet)
	protected.GET("/owners/:id/pets", anyStaff, h.Vets.ListPetsByOwner)

	if h.Exports != nil {
		exports := protected.Group("/exports", anyStaff)
		{
			exports.GET("/:id", h.Exports.Status)
			exports.GET("/:id/download-url", h.Exports.DownloadURL)
		}
		// Validated by the signed token itself, not a session.
		api.GET("/exports/download", h.Exports.Download)
	}

	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
}
