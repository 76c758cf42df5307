package http

import (
	"net/http"

	"ayurveda-clinic-backend/internal/delivery/http/handler"
	"ayurveda-clinic-backend/internal/delivery/http/middleware"
	"ayurveda-clinic-backend/pkg/response"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	appointmentHandler  *handler.AppointmentHandler
	availabilityHandler *handler.AvailabilityHandler
	feedbackHandler     *handler.FeedbackHandler
	notificationHandler *handler.NotificationHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	rateLimiter         *middleware.RateLimiter
}

func NewRouter(
	authHandler *handler.AuthHandler,
	appointmentHandler *handler.AppointmentHandler,
	availabilityHandler *handler.AvailabilityHandler,
	feedbackHandler *handler.FeedbackHandler,
	notificationHandler *handler.NotificationHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	rateLimiter *middleware.RateLimiter,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		appointmentHandler:  appointmentHandler,
		availabilityHandler: availabilityHandler,
		feedbackHandler:     feedbackHandler,
		notificationHandler: notificationHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		rateLimiter:         rateLimiter,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Handle("/register/patient", r.rateLimiter.Limit(http.HandlerFunc(r.authHandler.RegisterPatient))).Methods(http.MethodPost)
	auth.Handle("/register/doctor", r.rateLimiter.Limit(http.HandlerFunc(r.authHandler.RegisterDoctor))).Methods(http.MethodPost)
	auth.Handle("/login", r.rateLimiter.Limit(http.HandlerFunc(r.authHandler.Login))).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Catalog (public)
	api.HandleFunc("/therapy-types", r.appointmentHandler.GetTherapyTypes).Methods(http.MethodGet)
	api.HandleFunc("/practitioners", r.appointmentHandler.GetPractitioners).Methods(http.MethodGet)

	// Availability reads (public)
	api.HandleFunc("/availability/{doctorId}", r.availabilityHandler.GetAvailability).Methods(http.MethodGet)
	api.HandleFunc("/availability/{doctorId}/slots/{date}", r.availabilityHandler.GetAvailableSlots).Methods(http.MethodGet)

	// Availability writes (doctor for self, or admin)
	availability := api.PathPrefix("/availability").Subrouter()
	availability.Use(r.authMiddleware.Authenticate)
	availability.Use(middleware.RequireAdminOrDoctor)
	availability.HandleFunc("/{doctorId}", r.availabilityHandler.UpsertAvailability).Methods(http.MethodPut)
	availability.HandleFunc("/{doctorId}/special-date", r.availabilityHandler.AddSpecialDate).Methods(http.MethodPost)

	// Appointments
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)
	appointments.Handle("", middleware.RequirePatient(r.rateLimiter.Limit(http.HandlerFunc(r.appointmentHandler.CreateAppointment)))).Methods(http.MethodPost)
	appointments.HandleFunc("", r.appointmentHandler.GetAppointments).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	appointments.Handle("/{id}", middleware.RequireAdminOrDoctor(http.HandlerFunc(r.appointmentHandler.UpdateAppointment))).Methods(http.MethodPut)
	appointments.Handle("/{id}/prescription", middleware.RequireDoctor(http.HandlerFunc(r.appointmentHandler.UploadPrescription))).Methods(http.MethodPut)

	// Feedback
	feedback := api.PathPrefix("/feedback").Subrouter()
	feedback.Use(r.authMiddleware.Authenticate)
	feedback.Handle("", middleware.RequirePatient(http.HandlerFunc(r.feedbackHandler.SubmitFeedback))).Methods(http.MethodPost)
	feedback.HandleFunc("/appointment/{id}", r.feedbackHandler.GetAppointmentFeedback).Methods(http.MethodGet)
	feedback.Handle("/practitioner", middleware.RequireAdminOrDoctor(http.HandlerFunc(r.feedbackHandler.GetPractitionerFeedback))).Methods(http.MethodGet)
	feedback.Handle("/practitioner/{practitionerId}", middleware.RequireAdminOrDoctor(http.HandlerFunc(r.feedbackHandler.GetPractitionerFeedback))).Methods(http.MethodGet)

	// Notifications
	notifications := api.PathPrefix("/notifications").Subrouter()
	notifications.Use(r.authMiddleware.Authenticate)
	notifications.HandleFunc("", r.notificationHandler.GetNotifications).Methods(http.MethodGet)
	notifications.HandleFunc("", r.notificationHandler.DeleteAllNotifications).Methods(http.MethodDelete)
	notifications.HandleFunc("/read-all", r.notificationHandler.MarkAllAsRead).Methods(http.MethodPut)
	notifications.HandleFunc("/{id}/read", r.notificationHandler.MarkAsRead).Methods(http.MethodPut)
	notifications.HandleFunc("/{id}", r.notificationHandler.DeleteNotification).Methods(http.MethodDelete)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/analytics", r.appointmentHandler.GetAnalytics).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
