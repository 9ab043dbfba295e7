package domain

import "context"

// ========== REPOSITORIES ==========

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]User, error)
	Update(ctx context.Context, user *User) error
	CountByRole(ctx context.Context, role Role) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByReference(ctx context.Context, reference string) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error
	SumCompleted(ctx context.Context) (float64, error)
}

type CourseRepository interface { // MongoDB
	Create(ctx context.Context, course *Course) error
	GetBySlug(ctx context.Context, slug string) (*Course, error)
	GetPublished(ctx context.Context) ([]Course, error)
	GetAll(ctx context.Context) ([]Course, error)
	// Replace persists the whole course document (editor replace-on-save).
	Replace(ctx context.Context, course *Course) error
	Delete(ctx context.Context, slug string) error
	// IncrementPromoUsage bumps used_count for one promo code on the course.
	IncrementPromoUsage(ctx context.Context, slug, code string) error
}

type EnrollmentRepository interface { // MongoDB
	Create(ctx context.Context, enrollment *Enrollment) error
	GetByID(ctx context.Context, id string) (*Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID uint, slug string) (*Enrollment, error)
	GetByTransactionRef(ctx context.Context, ref string) (*Enrollment, error)
	GetByStudentID(ctx context.Context, studentID uint) ([]Enrollment, error)
	GetByCourseSlug(ctx context.Context, slug string) ([]Enrollment, error)
	GetPendingBankTransfers(ctx context.Context, slug string) ([]Enrollment, error)
	Update(ctx context.Context, enrollment *Enrollment) error
	Delete(ctx context.Context, studentID uint, slug string) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status EnrollmentStatus) (int64, error)
}

type SubmissionRepository interface { // MongoDB
	Create(ctx context.Context, submission *Submission) error
	GetByID(ctx context.Context, id string) (*Submission, error)
	GetByStudentAndCourse(ctx context.Context, studentID uint, slug string) ([]Submission, error)
	GetByAssignment(ctx context.Context, assignmentID string) ([]Submission, error)
	Update(ctx context.Context, submission *Submission) error
}

type AssignmentRepository interface { // MongoDB
	Create(ctx context.Context, assignment *Assignment) error
	GetByID(ctx context.Context, id string) (*Assignment, error)
	GetByCourseSlug(ctx context.Context, slug string) ([]Assignment, error)
	Update(ctx context.Context, assignment *Assignment) error
	Delete(ctx context.Context, id string) error
}

type AnnouncementRepository interface { // MongoDB
	Create(ctx context.Context, announcement *Announcement) error
	// GetForCourse returns course-scoped plus site-wide announcements.
	GetForCourse(ctx context.Context, slug string) ([]Announcement, error)
	GetAll(ctx context.Context) ([]Announcement, error)
	Update(ctx context.Context, announcement *Announcement) error
	Delete(ctx context.Context, id string) error
}

type LiveClassRepository interface { // MongoDB
	Create(ctx context.Context, class *LiveClass) error
	GetByID(ctx context.Context, id string) (*LiveClass, error)
	GetByCourseSlug(ctx context.Context, slug string) ([]LiveClass, error)
	GetUpcoming(ctx context.Context) ([]LiveClass, error)
	Update(ctx context.Context, class *LiveClass) error
	Delete(ctx context.Context, id string) error
}

type NoteRepository interface { // MongoDB
	Upsert(ctx context.Context, note *Note) error
	GetByStudentAndCourse(ctx context.Context, studentID uint, slug string) ([]Note, error)
}

type StudentProfileRepository interface { // MongoDB
	GetByUserID(ctx context.Context, userID uint) (*StudentProfile, error)
	// ReplaceEnrolledCourses rewrites the denormalized summary list whole.
	ReplaceEnrolledCourses(ctx context.Context, userID uint, courses []EnrolledCourseSummary) error
}

// ========== PAYMENT GATEWAY ==========

// PaymentGateway wraps the third-party processor. Implementations must treat
// every call as possibly-failed-but-retriable; nothing here is assumed to
// have taken effect unless the response says so.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, email string, amount float64, reference string, metadata map[string]string) (*CheckoutSession, error)
	VerifyTransaction(ctx context.Context, reference string) (*GatewayTransaction, error)
	ValidateSignature(signature string, body []byte) bool
}

// ========== USECASES ==========

type AuthUsecase interface {
	Register(ctx context.Context, user *User) error
	Login(ctx context.Context, email, password string) (string, error)
	UpdateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
}

// EnrollmentUsecase is the reconciliation service: it turns a checkout
// intent into exactly one enrollment document and keeps it consistent with
// the true payment outcome, whichever confirmation path reports it first.
type EnrollmentUsecase interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	Confirm(ctx context.Context, reference string, outcome Outcome) (*Enrollment, error)
	VerifyPayment(ctx context.Context, reference string) (*Enrollment, error)
	HandleWebhook(ctx context.Context, signature string, body []byte) error
	ApproveBankTransfer(ctx context.Context, enrollmentID string) (*Enrollment, error)
	RejectBankTransfer(ctx context.Context, enrollmentID string) (*Enrollment, error)
	RemoveEnrollment(ctx context.Context, studentID uint, slug string) error
	OverrideProgress(ctx context.Context, studentID uint, slug string, progress int) (*Enrollment, error)
	GetStudentEnrollments(ctx context.Context, studentID uint) ([]EnrolledCourseView, error)
}

type ProgressUsecase interface {
	MarkLessonComplete(ctx context.Context, studentID uint, slug, lessonID string) (int, error)
	CourseStats(ctx context.Context, slug string) (*CourseStats, error)
	AverageGrade(ctx context.Context, studentID uint, slug string) (*int, error)
}

type CourseUsecase interface {
	CreateCourse(ctx context.Context, course *Course) error
	UpdateCourse(ctx context.Context, course *Course) error
	// SaveContent is the replace-on-save target of the admin editor's
	// debounced auto-save. Last writer wins.
	SaveContent(ctx context.Context, slug string, modules []Module, promos []PromoCode) (*Course, error)
	PublishCourse(ctx context.Context, slug string, published bool) error
	DeleteCourse(ctx context.Context, slug string) error
	GetCatalog(ctx context.Context) ([]Course, error)
	GetAllCourses(ctx context.Context) ([]Course, error)
	GetCourseDetail(ctx context.Context, slug string, userID *uint) (*Course, bool, error)
}

type ClassroomUsecase interface {
	GetStudentClassroom(ctx context.Context, studentID uint, slug string) (*ClassroomData, error)
	GetAdminClassroom(ctx context.Context, slug string) (*AdminClassroomData, error)
	GetStudentDashboard(ctx context.Context, studentID uint) (*StudentDashboardData, error)
	GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error)
	SubmitAssignment(ctx context.Context, studentID uint, assignmentID, fileID string) (*Submission, error)
	GradeSubmission(ctx context.Context, submissionID string, grade float64, feedback string) (*Submission, error)
	UpsertNote(ctx context.Context, note *Note) error
}

type LiveClassUsecase interface {
	CreateClass(ctx context.Context, class *LiveClass) error
	UpdateClass(ctx context.Context, class *LiveClass) error
	UpdateStatus(ctx context.Context, id string, status LiveClassStatus) error
	DeleteClass(ctx context.Context, id string) error
	GetByCourse(ctx context.Context, slug string) ([]LiveClass, error)
	GetUpcoming(ctx context.Context) ([]LiveClass, error)
}

type AnnouncementUsecase interface {
	Create(ctx context.Context, a *Announcement) error
	Update(ctx context.Context, a *Announcement) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]Announcement, error)
}

type AssignmentUsecase interface {
	Create(ctx context.Context, a *Assignment) error
	Update(ctx context.Context, a *Assignment) error
	Delete(ctx context.Context, id string) error
	GetByCourse(ctx context.Context, slug string) ([]Assignment, error)
	GetSubmissions(ctx context.Context, assignmentID string) ([]Submission, error)
}
