package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"learnhub-backend/internal/domain"
	"learnhub-backend/pkg/monitoring"
)

// ========== ADMIN COURSE HANDLERS ==========

func (h *Handler) CreateCourse(c *gin.Context) {
	var req struct {
		Slug        string  `json:"slug" binding:"required"`
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description"`
		Price       float64 `json:"price" binding:"gte=0"`
		Level       string  `json:"level"`
		Duration    string  `json:"duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	course := domain.Course{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Level:       req.Level,
		Duration:    req.Duration,
	}
	if err := h.CourseUsecase.CreateCourse(c.Request.Context(), &course); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Price       *float64 `json:"price"`
		Level       string   `json:"level"`
		Duration    string   `json:"duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	course := domain.Course{
		Slug:        c.Param("slug"),
		Title:       req.Title,
		Description: req.Description,
		Price:       -1, // negative means "leave unchanged"
		Level:       req.Level,
		Duration:    req.Duration,
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if err := h.CourseUsecase.UpdateCourse(c.Request.Context(), &course); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course updated"})
}

// SaveCourseContent is the editor auto-save endpoint: the full module tree
// and promo list arrive each time and replace what is stored.
func (h *Handler) SaveCourseContent(c *gin.Context) {
	var req struct {
		Modules    []domain.Module    `json:"modules"`
		PromoCodes []domain.PromoCode `json:"promo_codes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	course, err := h.CourseUsecase.SaveContent(c.Request.Context(), c.Param("slug"), req.Modules, req.PromoCodes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

func (h *Handler) PublishCourse(c *gin.Context) {
	var req struct {
		Published *bool `json:"published" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	if err := h.CourseUsecase.PublishCourse(c.Request.Context(), c.Param("slug"), *req.Published); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course publish state updated"})
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	if err := h.CourseUsecase.DeleteCourse(c.Request.Context(), c.Param("slug")); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

func (h *Handler) GetAllCourses(c *gin.Context) {
	courses, err := h.CourseUsecase.GetAllCourses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// ========== ADMIN CLASSROOM HANDLERS ==========

func (h *Handler) GetAdminClassroom(c *gin.Context) {
	data, err := h.ClassroomUsecase.GetAdminClassroom(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) GetAdminDashboard(c *gin.Context) {
	data, err := h.ClassroomUsecase.GetAdminDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) ApproveBankTransfer(c *gin.Context) {
	enrollment, err := h.EnrollmentUsecase.ApproveBankTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	monitoring.EnrollmentActivations.WithLabelValues(string(domain.MethodBankTransfer)).Inc()
	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}

func (h *Handler) RejectBankTransfer(c *gin.Context) {
	enrollment, err := h.EnrollmentUsecase.RejectBankTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}

func (h *Handler) RemoveEnrollment(c *gin.Context) {
	studentID, err := strconv.ParseUint(c.Param("studentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	if err := h.EnrollmentUsecase.RemoveEnrollment(c.Request.Context(), uint(studentID), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enrollment removed"})
}

func (h *Handler) OverrideProgress(c *gin.Context) {
	studentID, err := strconv.ParseUint(c.Param("studentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	var req struct {
		Progress *int `json:"progress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	enrollment, err := h.EnrollmentUsecase.OverrideProgress(c.Request.Context(), uint(studentID), c.Param("slug"), *req.Progress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}

func (h *Handler) GetCourseStats(c *gin.Context) {
	stats, err := h.ProgressUsecase.CourseStats(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ========== ADMIN GRADING HANDLERS ==========

func (h *Handler) GradeSubmission(c *gin.Context) {
	var req struct {
		Grade    *float64 `json:"grade" binding:"required"`
		Feedback string   `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	submission, err := h.ClassroomUsecase.GradeSubmission(c.Request.Context(), c.Param("id"), *req.Grade, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// ========== ADMIN ASSIGNMENT HANDLERS ==========

func (h *Handler) CreateAssignment(c *gin.Context) {
	var req struct {
		CourseSlug   string    `json:"course_slug" binding:"required"`
		LessonID     string    `json:"lesson_id"`
		Title        string    `json:"title" binding:"required"`
		Instructions string    `json:"instructions"`
		MaxGrade     float64   `json:"max_grade" binding:"required,gt=0"`
		DueAt        time.Time `json:"due_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	assignment := domain.Assignment{
		CourseSlug:   req.CourseSlug,
		LessonID:     req.LessonID,
		Title:        req.Title,
		Instructions: req.Instructions,
		MaxGrade:     req.MaxGrade,
		DueAt:        req.DueAt,
	}
	if err := h.AssignmentUsecase.Create(c.Request.Context(), &assignment); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment": assignment})
}

func (h *Handler) UpdateAssignment(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment id"})
		return
	}

	var req struct {
		Title        string    `json:"title"`
		Instructions string    `json:"instructions"`
		MaxGrade     float64   `json:"max_grade"`
		DueAt        time.Time `json:"due_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	assignment := domain.Assignment{
		ID:           id,
		Title:        req.Title,
		Instructions: req.Instructions,
		MaxGrade:     req.MaxGrade,
		DueAt:        req.DueAt,
	}
	if err := h.AssignmentUsecase.Update(c.Request.Context(), &assignment); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment updated"})
}

func (h *Handler) DeleteAssignment(c *gin.Context) {
	if err := h.AssignmentUsecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment deleted"})
}

func (h *Handler) GetCourseAssignments(c *gin.Context) {
	assignments, err := h.AssignmentUsecase.GetByCourse(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

func (h *Handler) GetAssignmentSubmissions(c *gin.Context) {
	submissions, err := h.AssignmentUsecase.GetSubmissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// ========== ADMIN ANNOUNCEMENT HANDLERS ==========

func (h *Handler) CreateAnnouncement(c *gin.Context) {
	var req struct {
		CourseSlug string `json:"course_slug"`
		Title      string `json:"title" binding:"required"`
		Body       string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	announcement := domain.Announcement{
		CourseSlug: req.CourseSlug,
		Title:      req.Title,
		Body:       req.Body,
	}
	if err := h.AnnouncementUsecase.Create(c.Request.Context(), &announcement); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"announcement": announcement})
}

func (h *Handler) UpdateAnnouncement(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement id"})
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
		Body  string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	announcement := domain.Announcement{ID: id, Title: req.Title, Body: req.Body}
	if err := h.AnnouncementUsecase.Update(c.Request.Context(), &announcement); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Announcement updated"})
}

func (h *Handler) DeleteAnnouncement(c *gin.Context) {
	if err := h.AnnouncementUsecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Announcement deleted"})
}

func (h *Handler) GetAllAnnouncements(c *gin.Context) {
	announcements, err := h.AnnouncementUsecase.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": announcements})
}

// ========== ADMIN LIVE CLASS HANDLERS ==========

func (h *Handler) CreateLiveClass(c *gin.Context) {
	var req struct {
		CourseSlug  string    `json:"course_slug" binding:"required"`
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description"`
		MeetingURL  string    `json:"meeting_url" binding:"required,url"`
		StartTime   time.Time `json:"start_time" binding:"required"`
		EndTime     time.Time `json:"end_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	class := domain.LiveClass{
		CourseSlug:  req.CourseSlug,
		Title:       req.Title,
		Description: req.Description,
		MeetingURL:  req.MeetingURL,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := h.LiveClassUsecase.CreateClass(c.Request.Context(), &class); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"live_class": class})
}

func (h *Handler) UpdateLiveClass(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid live class id"})
		return
	}

	var req struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		MeetingURL  string    `json:"meeting_url" binding:"omitempty,url"`
		StartTime   time.Time `json:"start_time"`
		EndTime     time.Time `json:"end_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	class := domain.LiveClass{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		MeetingURL:  req.MeetingURL,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := h.LiveClassUsecase.UpdateClass(c.Request.Context(), &class); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Live class updated"})
}

// GetLiveClasses lists classes for one course when ?course= is set,
// otherwise the upcoming schedule across all courses.
func (h *Handler) GetLiveClasses(c *gin.Context) {
	var (
		classes []domain.LiveClass
		err     error
	)
	if slug := c.Query("course"); slug != "" {
		classes, err = h.LiveClassUsecase.GetByCourse(c.Request.Context(), slug)
	} else {
		classes, err = h.LiveClassUsecase.GetUpcoming(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"live_classes": classes})
}

func (h *Handler) UpdateLiveClassStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,oneof=scheduled live ended"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	if err := h.LiveClassUsecase.UpdateStatus(c.Request.Context(), c.Param("id"), domain.LiveClassStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

func (h *Handler) DeleteLiveClass(c *gin.Context) {
	if err := h.LiveClassUsecase.DeleteClass(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Live class deleted"})
}
