package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"learnhub-backend/internal/domain"
	"learnhub-backend/internal/repository"
	"learnhub-backend/pkg/monitoring"
)

type Handler struct {
	AuthUsecase         domain.AuthUsecase
	CourseUsecase       domain.CourseUsecase
	EnrollmentUsecase   domain.EnrollmentUsecase
	ProgressUsecase     domain.ProgressUsecase
	ClassroomUsecase    domain.ClassroomUsecase
	LiveClassUsecase    domain.LiveClassUsecase
	AnnouncementUsecase domain.AnnouncementUsecase
	AssignmentUsecase   domain.AssignmentUsecase
	FileRepo            repository.FileRepository
}

func NewHandler(
	au domain.AuthUsecase,
	cu domain.CourseUsecase,
	eu domain.EnrollmentUsecase,
	pu domain.ProgressUsecase,
	clu domain.ClassroomUsecase,
	lcu domain.LiveClassUsecase,
	anu domain.AnnouncementUsecase,
	asu domain.AssignmentUsecase,
	fr repository.FileRepository,
) *Handler {
	return &Handler{
		AuthUsecase:         au,
		CourseUsecase:       cu,
		EnrollmentUsecase:   eu,
		ProgressUsecase:     pu,
		ClassroomUsecase:    clu,
		LiveClassUsecase:    lcu,
		AnnouncementUsecase: anu,
		AssignmentUsecase:   asu,
		FileRepo:            fr,
	}
}

// ========== UTILITY FUNCTIONS ==========

func formatValidationErrors(err error) gin.H {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string)
		for _, f := range ve {
			fields[f.Field()] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", f.Field(), f.Tag())
		}
		return gin.H{"error": "Validation failed", "details": fields}
	}
	return gin.H{"error": "Invalid request: " + err.Error()}
}

func getUserID(c *gin.Context) (uint, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, errors.New("user ID not found in token")
	}
	return userID.(uint), nil
}

// respondError maps domain sentinels to HTTP statuses so every handler
// speaks the same error dialect.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrEnrollmentNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrAssignmentNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotEnrolled):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidPromoCode),
		errors.Is(err, domain.ErrReceiptRequired),
		errors.Is(err, domain.ErrNotPendingBankTransfer),
		errors.Is(err, domain.ErrGradeOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidSignature):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrGatewayUnavailable):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ========== AUTH HANDLERS ==========

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Phone    string `json:"phone"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	user := domain.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}
	if err := h.AuthUsecase.Register(c.Request.Context(), &user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *Handler) Login(c *gin.Context) {
	var creds struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	token, err := h.AuthUsecase.Login(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	user, err := h.AuthUsecase.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	user := domain.User{ID: userID, Name: req.Name, Phone: req.Phone, Password: req.Password}
	if err := h.AuthUsecase.UpdateUser(c.Request.Context(), &user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// ========== CATALOG HANDLERS ==========

func (h *Handler) GetCatalog(c *gin.Context) {
	courses, err := h.CourseUsecase.GetCatalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *Handler) GetCourseDetail(c *gin.Context) {
	slug := c.Param("slug")

	var userID *uint
	if id, err := getUserID(c); err == nil {
		userID = &id
	}

	course, enrolled, err := h.CourseUsecase.GetCourseDetail(c.Request.Context(), slug, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course, "enrolled": enrolled})
}

// ========== ENROLLMENT HANDLERS ==========

func (h *Handler) InitiateEnrollment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		CourseSlug    string `json:"course_slug" binding:"required"`
		Method        string `json:"payment_method" binding:"required,oneof=card bank_transfer"`
		PromoCode     string `json:"promo_code"`
		ReceiptFileID string `json:"receipt_file_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	result, err := h.EnrollmentUsecase.Initiate(c.Request.Context(), domain.InitiateInput{
		StudentID:     userID,
		CourseSlug:    req.CourseSlug,
		Method:        domain.PaymentMethod(req.Method),
		PromoCode:     req.PromoCode,
		ReceiptFileID: req.ReceiptFileID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.AlreadyActive {
		c.JSON(http.StatusOK, gin.H{
			"message":    "Already enrolled",
			"enrollment": result.Enrollment,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"enrollment":        result.Enrollment,
		"authorization_url": result.AuthorizationURL,
	})
}

// VerifyPayment is the browser return leg: the client lands back from
// checkout and asks us to reconcile with the gateway.
func (h *Handler) VerifyPayment(c *gin.Context) {
	reference := c.Param("reference")
	enrollment, err := h.EnrollmentUsecase.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		respondError(c, err)
		return
	}

	if enrollment.Status == domain.EnrollmentActive {
		monitoring.EnrollmentActivations.WithLabelValues(string(enrollment.PaymentMethod)).Inc()
	}
	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}

// PaymentWebhook receives gateway events. The raw body must reach signature
// validation untouched, so it is read here before any binding.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	signature := c.GetHeader("x-paystack-signature")

	if err := h.EnrollmentUsecase.HandleWebhook(c.Request.Context(), signature, body); err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			monitoring.WebhookRejections.Inc()
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetMyEnrollments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	views, err := h.EnrollmentUsecase.GetStudentEnrollments(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": views})
}

// ========== STUDENT CLASSROOM HANDLERS ==========

func (h *Handler) GetClassroom(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	data, err := h.ClassroomUsecase.GetStudentClassroom(c.Request.Context(), userID, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) MarkLessonComplete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	progress, err := h.ProgressUsecase.MarkLessonComplete(c.Request.Context(), userID, c.Param("slug"), c.Param("lessonId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (h *Handler) GetStudentDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	data, err := h.ClassroomUsecase.GetStudentDashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) SubmitAssignment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		FileID string `json:"file_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	submission, err := h.ClassroomUsecase.SubmitAssignment(c.Request.Context(), userID, c.Param("id"), req.FileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

func (h *Handler) SaveNote(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		LessonID string `json:"lesson_id" binding:"required"`
		Body     string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	note := domain.Note{
		StudentID:  userID,
		CourseSlug: c.Param("slug"),
		LessonID:   req.LessonID,
		Body:       req.Body,
	}
	if err := h.ClassroomUsecase.UpsertNote(c.Request.Context(), &note); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note saved"})
}

func (h *Handler) GetAverageGrade(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	avg, err := h.ProgressUsecase.AverageGrade(c.Request.Context(), userID, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	// avg stays null when nothing is graded yet.
	c.JSON(http.StatusOK, gin.H{"average_grade": avg})
}
