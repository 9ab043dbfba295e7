package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub-backend/pkg/monitoring"
)

func InitRouter(handler *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(monitoring.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", monitoring.PrometheusHandler())

	// Public Routes
	api := r.Group("/api/v1")
	{
		api.POST("/register", handler.Register)
		api.POST("/login", handler.Login)
		api.GET("/courses", handler.GetCatalog)
		api.GET("/courses/:slug", OptionalAuth(), handler.GetCourseDetail)

		// Gateway callbacks authenticate by signature, not by token.
		api.POST("/payments/webhook", handler.PaymentWebhook)
	}

	// Student Routes
	student := api.Group("/")
	student.Use(AuthMiddleware())
	{
		student.GET("/profile", handler.GetProfile)
		student.PUT("/profile", handler.UpdateProfile)

		student.POST("/enrollments", handler.InitiateEnrollment)
		student.GET("/enrollments", handler.GetMyEnrollments)
		student.GET("/payments/verify/:reference", handler.VerifyPayment)

		student.GET("/classroom/:slug", handler.GetClassroom)
		student.POST("/classroom/:slug/lessons/:lessonId/complete", handler.MarkLessonComplete)
		student.GET("/classroom/:slug/grade", handler.GetAverageGrade)
		student.PUT("/classroom/:slug/notes", handler.SaveNote)
		student.POST("/assignments/:id/submissions", handler.SubmitAssignment)

		student.GET("/dashboard", handler.GetStudentDashboard)

		student.POST("/files", handler.UploadFile)
		student.GET("/files/:id", handler.DownloadFile)
	}

	// Admin Only
	admin := api.Group("/admin")
	admin.Use(AuthMiddleware("admin"))
	{
		admin.GET("/dashboard", handler.GetAdminDashboard)

		admin.GET("/courses", handler.GetAllCourses)
		admin.POST("/courses", handler.CreateCourse)
		admin.PUT("/courses/:slug", handler.UpdateCourse)
		admin.PUT("/courses/:slug/content", handler.SaveCourseContent)
		admin.PATCH("/courses/:slug/publish", handler.PublishCourse)
		admin.DELETE("/courses/:slug", handler.DeleteCourse)
		admin.GET("/courses/:slug/assignments", handler.GetCourseAssignments)

		admin.GET("/classroom/:slug", handler.GetAdminClassroom)
		admin.GET("/classroom/:slug/stats", handler.GetCourseStats)
		admin.PATCH("/classroom/:slug/students/:studentId/progress", handler.OverrideProgress)
		admin.DELETE("/classroom/:slug/students/:studentId", handler.RemoveEnrollment)

		admin.POST("/bank-transfers/:id/approve", handler.ApproveBankTransfer)
		admin.POST("/bank-transfers/:id/reject", handler.RejectBankTransfer)

		admin.POST("/assignments", handler.CreateAssignment)
		admin.PUT("/assignments/:id", handler.UpdateAssignment)
		admin.DELETE("/assignments/:id", handler.DeleteAssignment)
		admin.GET("/assignments/:id/submissions", handler.GetAssignmentSubmissions)
		admin.POST("/submissions/:id/grade", handler.GradeSubmission)

		admin.GET("/announcements", handler.GetAllAnnouncements)
		admin.POST("/announcements", handler.CreateAnnouncement)
		admin.PUT("/announcements/:id", handler.UpdateAnnouncement)
		admin.DELETE("/announcements/:id", handler.DeleteAnnouncement)

		admin.GET("/live-classes", handler.GetLiveClasses)
		admin.POST("/live-classes", handler.CreateLiveClass)
		admin.PUT("/live-classes/:id", handler.UpdateLiveClass)
		admin.PATCH("/live-classes/:id/status", handler.UpdateLiveClassStatus)
		admin.DELETE("/live-classes/:id", handler.DeleteLiveClass)
	}

	return r
}
