package routes

import (
	"net/http"

	"clinicpro-backend/config"
	"clinicpro-backend/controllers"
	"clinicpro-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options carries what the router needs besides the controller.
type Options struct {
	JWTSecret      string
	CORSOrigins    []string
	MetricsHandler http.Handler

	TwilioAuthToken string
	PublicURL       string
}

func SetupRouter(rc *controllers.ReminderController, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := opts.CORSOrigins
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
	}))

	r.Use(config.PerformanceLogger())

	r.GET("/health", controllers.Health)
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	// Provider callbacks carry the provider's signature, not operator tokens
	webhooks := r.Group("/webhooks")
	webhooks.Use(utils.TwilioSignatureMiddleware(opts.TwilioAuthToken, opts.PublicURL))
	{
		webhooks.POST("/twilio/status", rc.TwilioStatusCallback)
	}

	api := r.Group("/api/reminders")
	api.Use(utils.AuthMiddleware(opts.JWTSecret))
	{
		api.GET("/config", rc.GetReminderConfig)
		api.PUT("/config", rc.UpdateReminderConfig)

		templates := api.Group("/templates")
		{
			templates.GET("", rc.GetReminderTemplates)
			templates.POST("", rc.CreateReminderTemplate)
			templates.GET("/:id", rc.GetReminderTemplate)
			templates.PUT("/:id", rc.UpdateReminderTemplate)
			templates.DELETE("/:id", rc.DeleteReminderTemplate)
			templates.POST("/:id/preview", rc.PreviewReminderTemplate)
		}

		api.POST("/send", rc.SendReminder)
		api.GET("/logs", rc.GetReminderLogs)
		api.GET("/stats", rc.GetReminderStats)
		api.GET("/channels", rc.GetChannels)

		scheduler := api.Group("/scheduler")
		{
			scheduler.GET("/status", rc.GetSchedulerStatus)
			scheduler.POST("/process", rc.ProcessNow)
			scheduler.POST("/start", rc.StartScheduler)
			scheduler.POST("/stop", rc.StopScheduler)
		}

		appointments := api.Group("/appointments")
		{
			appointments.POST("/:id/schedule", rc.ScheduleAppointmentReminders)
			appointments.POST("/:id/reschedule", rc.RescheduleAppointmentReminders)
			appointments.DELETE("/:id/schedule", rc.CancelAppointmentReminders)
			appointments.GET("/:id/schedules", rc.GetAppointmentSchedules)
		}

		api.POST("/schedules/:id/resend", rc.ResendSchedule)
	}

	return r
}
