package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ========== POSTGRESQL MODELS ==========

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone     string    `json:"phone,omitempty"`
	Password  string    `json:"-" gorm:"not null"`
	Role      Role      `json:"role" gorm:"type:varchar(20);default:'student'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment mirrors one gateway transaction (or one bank-transfer attempt).
// Exactly one row exists per enrollment attempt; a completed row corresponds
// to an active enrollment.
type Payment struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	Reference  string        `json:"reference" gorm:"uniqueIndex;not null"`
	UserID     uint          `json:"user_id" gorm:"not null;index"`
	CourseSlug string        `json:"course_slug" gorm:"not null;index"`
	Method     PaymentMethod `json:"method" gorm:"type:varchar(20);not null"`
	Amount     float64       `json:"amount" gorm:"not null"`
	Status     PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Channel    string        `json:"channel,omitempty"`
	CreatedAt  time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// ========== MONGODB MODELS ==========

type LessonType string

const (
	LessonVideo LessonType = "video"
	LessonPDF   LessonType = "pdf"
	LessonText  LessonType = "text"
)

type Lesson struct {
	ID              string     `json:"id" bson:"id"`
	Title           string     `json:"title" bson:"title"`
	Type            LessonType `json:"type" bson:"type"`
	ContentURL      string     `json:"content_url,omitempty" bson:"content_url,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty" bson:"duration_minutes,omitempty"`
}

type Module struct {
	ID      string   `json:"id" bson:"id"`
	Title   string   `json:"title" bson:"title"`
	Order   int      `json:"order" bson:"order"`
	Lessons []Lesson `json:"lessons" bson:"lessons"`
}

type PromoCode struct {
	Code            string `json:"code" bson:"code"`
	DiscountPercent int    `json:"discount_percent" bson:"discount_percent"`
	MaxUses         int    `json:"max_uses" bson:"max_uses"`
	UsedCount       int    `json:"used_count" bson:"used_count"`
}

// Course holds the full content tree. The admin editor loads the whole
// document, mutates it in memory and replaces it atomically on save.
// Lesson IDs are unique within a course; they key completion tracking
// and assignment linkage.
type Course struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Slug        string             `json:"slug" bson:"slug"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Price       float64            `json:"price" bson:"price"`
	Level       string             `json:"level" bson:"level"`
	Duration    string             `json:"duration" bson:"duration"`
	Published   bool               `json:"published" bson:"published"`
	PromoCodes  []PromoCode        `json:"promo_codes,omitempty" bson:"promo_codes,omitempty"`
	Modules     []Module           `json:"modules" bson:"modules"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// TotalLessons counts lessons across all modules.
func (c *Course) TotalLessons() int {
	total := 0
	for _, m := range c.Modules {
		total += len(m.Lessons)
	}
	return total
}

// LessonIDSet returns the set of lesson IDs currently in the course.
func (c *Course) LessonIDSet() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			ids[l.ID] = struct{}{}
		}
	}
	return ids
}

// FindPromo returns the promo entry matching code, or nil.
func (c *Course) FindPromo(code string) *PromoCode {
	for i := range c.PromoCodes {
		if c.PromoCodes[i].Code == code {
			return &c.PromoCodes[i]
		}
	}
	return nil
}

type EnrollmentStatus string

const (
	EnrollmentPending EnrollmentStatus = "pending"
	EnrollmentActive  EnrollmentStatus = "active"
	EnrollmentFailed  EnrollmentStatus = "failed"
)

// Enrollment binds one student to one course. At most one document exists
// per (student_id, course_slug). Status active means payment was confirmed,
// either by the gateway or by admin approval of a bank transfer. An active
// enrollment never goes back to pending.
type Enrollment struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	StudentID        uint               `json:"student_id" bson:"student_id"`
	CourseSlug       string             `json:"course_slug" bson:"course_slug"`
	CourseName       string             `json:"course_name" bson:"course_name"`
	Status           EnrollmentStatus   `json:"status" bson:"status"`
	PaymentMethod    PaymentMethod      `json:"payment_method" bson:"payment_method"`
	AmountPaid       float64            `json:"amount_paid" bson:"amount_paid"`
	Paid             bool               `json:"paid" bson:"paid"`
	TransactionRef   string             `json:"transaction_ref,omitempty" bson:"transaction_ref,omitempty"`
	PromoCode        string             `json:"promo_code,omitempty" bson:"promo_code,omitempty"`
	ReceiptFileID    string             `json:"receipt_file_id,omitempty" bson:"receipt_file_id,omitempty"`
	CompletedLessons []string           `json:"completed_lessons" bson:"completed_lessons"`
	Progress         int                `json:"progress" bson:"progress"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	VerifiedAt       *time.Time         `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
}

// HasCompleted reports whether lessonID is already in the completed set.
func (e *Enrollment) HasCompleted(lessonID string) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionLate      SubmissionStatus = "late"
	SubmissionGraded    SubmissionStatus = "graded"
)

type Assignment struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CourseSlug   string             `json:"course_slug" bson:"course_slug"`
	LessonID     string             `json:"lesson_id,omitempty" bson:"lesson_id,omitempty"`
	Title        string             `json:"title" bson:"title"`
	Instructions string             `json:"instructions" bson:"instructions"`
	MaxGrade     float64            `json:"max_grade" bson:"max_grade"`
	DueAt        time.Time          `json:"due_at" bson:"due_at"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// Submission is created by a student upload and mutated once by admin
// grading (replace, not increment). Grade is present iff status is graded.
type Submission struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AssignmentID string             `json:"assignment_id" bson:"assignment_id"`
	StudentID    uint               `json:"student_id" bson:"student_id"`
	CourseSlug   string             `json:"course_slug" bson:"course_slug"`
	LessonID     string             `json:"lesson_id,omitempty" bson:"lesson_id,omitempty"`
	FileID       string             `json:"file_id" bson:"file_id"`
	Status       SubmissionStatus   `json:"status" bson:"status"`
	Grade        *float64           `json:"grade,omitempty" bson:"grade,omitempty"`
	MaxGrade     float64            `json:"max_grade" bson:"max_grade"`
	Feedback     string             `json:"feedback,omitempty" bson:"feedback,omitempty"`
	SubmittedAt  time.Time          `json:"submitted_at" bson:"submitted_at"`
	GradedAt     *time.Time         `json:"graded_at,omitempty" bson:"graded_at,omitempty"`
}

type Announcement struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CourseSlug string             `json:"course_slug,omitempty" bson:"course_slug,omitempty"` // empty = site-wide
	Title      string             `json:"title" bson:"title"`
	Body       string             `json:"body" bson:"body"`
	PostedAt   time.Time          `json:"posted_at" bson:"posted_at"`
}

type LiveClassStatus string

const (
	LiveClassScheduled LiveClassStatus = "scheduled"
	LiveClassLive      LiveClassStatus = "live"
	LiveClassEnded     LiveClassStatus = "ended"
)

type LiveClass struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CourseSlug  string             `json:"course_slug" bson:"course_slug"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	MeetingURL  string             `json:"meeting_url" bson:"meeting_url"`
	StartTime   time.Time          `json:"start_time" bson:"start_time"`
	EndTime     time.Time          `json:"end_time" bson:"end_time"`
	Status      LiveClassStatus    `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

type Note struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	StudentID  uint               `json:"student_id" bson:"student_id"`
	CourseSlug string             `json:"course_slug" bson:"course_slug"`
	LessonID   string             `json:"lesson_id" bson:"lesson_id"`
	Body       string             `json:"body" bson:"body"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// EnrolledCourseSummary is one entry of the denormalized cache carried on
// StudentProfile. The enrollments collection stays the source of truth;
// the summary list is rewritten whole whenever an enrollment changes.
type EnrolledCourseSummary struct {
	CourseSlug string    `json:"course_slug" bson:"course_slug"`
	CourseName string    `json:"course_name" bson:"course_name"`
	Paid       bool      `json:"paid" bson:"paid"`
	Amount     float64   `json:"amount" bson:"amount"`
	EnrolledAt time.Time `json:"enrolled_at" bson:"enrolled_at"`
	Progress   int       `json:"progress" bson:"progress"`
}

type StudentProfile struct {
	ID              primitive.ObjectID      `json:"id" bson:"_id,omitempty"`
	UserID          uint                    `json:"user_id" bson:"user_id"`
	EnrolledCourses []EnrolledCourseSummary `json:"enrolled_courses" bson:"enrolled_courses"`
	UpdatedAt       time.Time               `json:"updated_at" bson:"updated_at"`
}

// ========== GATEWAY TYPES ==========

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

type CheckoutSession struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

type GatewayTransaction struct {
	Reference string     `json:"reference"`
	Outcome   Outcome    `json:"outcome"`
	Amount    float64    `json:"amount"`
	Channel   string     `json:"channel"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// ========== REQUEST / RESPONSE DTOs ==========

type InitiateInput struct {
	StudentID     uint
	CourseSlug    string
	Method        PaymentMethod
	PromoCode     string
	ReceiptFileID string
}

type InitiateResult struct {
	Enrollment       *Enrollment `json:"enrollment"`
	AuthorizationURL string      `json:"authorization_url,omitempty"`
	AlreadyActive    bool        `json:"already_active"`
}

// CourseStats aggregates a course's enrollments for classroom views.
// Pending enrollments count toward TotalStudents but are excluded from
// AverageProgress.
type CourseStats struct {
	TotalStudents   int `json:"total_students"`
	ActiveStudents  int `json:"active_students"`
	AverageProgress int `json:"average_progress"`
}

// EnrolledCourseView merges the profile cache entry with live course
// metadata and freshly computed progress.
type EnrolledCourseView struct {
	EnrolledCourseSummary
	Level        string           `json:"level"`
	Duration     string           `json:"duration"`
	TotalLessons int              `json:"total_lessons"`
	Status       EnrollmentStatus `json:"status"`
}

type ClassroomData struct {
	Course        *Course        `json:"course"`
	Enrollment    *Enrollment    `json:"enrollment"`
	Stats         *CourseStats   `json:"stats"`
	Assignments   []Assignment   `json:"assignments"`
	Submissions   []Submission   `json:"submissions"`
	AverageGrade  *int           `json:"average_grade"`
	Notes         []Note         `json:"notes"`
	Announcements []Announcement `json:"announcements"`
	LiveClasses   []LiveClass    `json:"live_classes"`
}

// ClassroomStudent is one roster row in the admin classroom view.
type ClassroomStudent struct {
	StudentID  uint             `json:"student_id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Status     EnrollmentStatus `json:"status"`
	Method     PaymentMethod    `json:"payment_method"`
	Progress   int              `json:"progress"`
	EnrolledAt time.Time        `json:"enrolled_at"`
}

type AdminClassroomData struct {
	Course               *Course            `json:"course"`
	Students             []ClassroomStudent `json:"students"`
	Stats                *CourseStats       `json:"stats"`
	PendingBankTransfers []Enrollment       `json:"pending_bank_transfers"`
}

type StudentDashboardData struct {
	TotalEnrollments  int                  `json:"total_enrollments"`
	CompletedCourses  int                  `json:"completed_courses"`
	InProgressCourses int                  `json:"in_progress_courses"`
	EnrolledCourses   []EnrolledCourseView `json:"enrolled_courses"`
	UpcomingClasses   []LiveClass          `json:"upcoming_classes"`
	Announcements     []Announcement       `json:"announcements"`
}

type AdminDashboardData struct {
	TotalStudents        int     `json:"total_students"`
	TotalCourses         int     `json:"total_courses"`
	PublishedCourses     int     `json:"published_courses"`
	TotalEnrollments     int     `json:"total_enrollments"`
	ActiveEnrollments    int     `json:"active_enrollments"`
	PendingBankTransfers int     `json:"pending_bank_transfers"`
	TotalRevenue         float64 `json:"total_revenue"`
}
