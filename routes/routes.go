package routes

import (
	"medibook/authentication"
	"medibook/controllers"
	"medibook/models"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires every endpoint, grouped by the role allowed to call it.
func SetupRouter() *gin.Engine {
	r := gin.Default()

	// Public endpoints
	r.POST("/auth/login", controllers.Login)
	r.POST("/auth/register", controllers.Register)

	// Logout accepts an already revoked token so repeating it is a no-op.
	r.POST("/auth/logout", authentication.AuthAllowRevoked(), controllers.Logout)

	// Any authenticated role
	authed := r.Group("/")
	authed.Use(authentication.AuthMiddleware())
	{
		authed.GET("/user/profile", controllers.Profile)
		authed.GET("/doctors", controllers.SearchDoctors)
		authed.GET("/doctors/:id", controllers.GetDoctorByID)
		authed.GET("/appointments/available-slots", controllers.GetAvailableTimeSlots)
	}

	// Patient endpoints
	patient := r.Group("/")
	patient.Use(authentication.AuthMiddleware(models.RolePatient))
	{
		patient.POST("/bookings/draft", controllers.StartDraft)
		patient.GET("/bookings/draft", controllers.GetDraft)
		patient.PUT("/bookings/draft/provider", controllers.ChooseDraftProvider)
		patient.PUT("/bookings/draft/date", controllers.ChooseDraftDate)
		patient.PUT("/bookings/draft/slot", controllers.ChooseDraftSlot)
		patient.POST("/bookings/draft/back", controllers.DraftBack)
		patient.POST("/bookings/draft/submit", controllers.SubmitDraft)

		patient.POST("/appointments", controllers.BookAppointment)
		patient.GET("/appointments/patient", controllers.GetPatientAppointments)
		patient.POST("/appointments/:id/cancel", controllers.CancelAppointment)

		patient.POST("/payments/create-payment-intent", controllers.CreatePaymentIntent)
		patient.POST("/payments/confirm", controllers.ConfirmPayment)
		patient.GET("/payments/:id/receipt", controllers.DownloadReceipt)
	}

	// Doctor endpoints
	doctor := r.Group("/")
	doctor.Use(authentication.AuthMiddleware(models.RoleDoctor))
	{
		doctor.GET("/appointments/doctor", controllers.GetDoctorAppointments)
		doctor.GET("/doctors/earnings", controllers.GetDoctorEarnings)
	}

	// Doctor or admin
	staff := r.Group("/")
	staff.Use(authentication.AuthMiddleware(models.RoleDoctor, models.RoleAdmin))
	{
		staff.PUT("/appointments/:id/status", controllers.UpdateAppointmentStatus)
	}

	// Admin endpoints
	admin := r.Group("/admin")
	admin.Use(authentication.AuthMiddleware(models.RoleAdmin))
	{
		admin.GET("/dashboard-stats", controllers.GetDashboardStats)
		admin.GET("/doctors", controllers.ListDoctors)
		admin.GET("/patients", controllers.ListPatients)
	}

	return r
}
