package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"learnhub-backend/internal/domain"
	"learnhub-backend/pkg/logger"
	"learnhub-backend/pkg/mail"
)

type enrollmentUsecase struct {
	enrollmentRepo domain.EnrollmentRepository
	courseRepo     domain.CourseRepository
	paymentRepo    domain.PaymentRepository
	userRepo       domain.UserRepository
	profileRepo    domain.StudentProfileRepository
	gateway        domain.PaymentGateway
	mailer         mail.Service
}

func NewEnrollmentUsecase(
	er domain.EnrollmentRepository,
	cr domain.CourseRepository,
	pr domain.PaymentRepository,
	ur domain.UserRepository,
	spr domain.StudentProfileRepository,
	gw domain.PaymentGateway,
	mailer mail.Service,
) domain.EnrollmentUsecase {
	return &enrollmentUsecase{
		enrollmentRepo: er,
		courseRepo:     cr,
		paymentRepo:    pr,
		userRepo:       ur,
		profileRepo:    spr,
		gateway:        gw,
		mailer:         mailer,
	}
}

// ========== INITIATE ==========

// Initiate turns a checkout intent into one pending enrollment plus one
// payment row. Card checkouts call the gateway before anything is written:
// a gateway failure leaves no record behind. Promo usage is not counted
// here; only a confirmed payment increments it.
func (uc *enrollmentUsecase) Initiate(ctx context.Context, input domain.InitiateInput) (*domain.InitiateResult, error) {
	course, err := uc.courseRepo.GetBySlug(ctx, input.CourseSlug)
	if err != nil {
		return nil, domain.ErrCourseNotFound
	}
	if !course.Published {
		return nil, domain.ErrCourseNotFound
	}

	// An active enrollment makes re-initiation a no-op returning the
	// existing record. Pending and failed rows do not block a retry;
	// they get replaced in place to keep one row per (student, course).
	existing, _ := uc.enrollmentRepo.GetByStudentAndCourse(ctx, input.StudentID, input.CourseSlug)
	if existing != nil && existing.Status == domain.EnrollmentActive {
		return &domain.InitiateResult{Enrollment: existing, AlreadyActive: true}, nil
	}

	amount := course.Price
	if input.PromoCode != "" {
		promo := course.FindPromo(input.PromoCode)
		if promo == nil || promo.UsedCount >= promo.MaxUses {
			return nil, domain.ErrInvalidPromoCode
		}
		amount = amount * float64(100-promo.DiscountPercent) / 100
	}

	switch input.Method {
	case domain.MethodBankTransfer:
		if input.ReceiptFileID == "" {
			return nil, domain.ErrReceiptRequired
		}
		reference := "bank_" + uuid.NewString()
		enrollment := &domain.Enrollment{
			StudentID:      input.StudentID,
			CourseSlug:     course.Slug,
			CourseName:     course.Title,
			Status:         domain.EnrollmentPending,
			PaymentMethod:  domain.MethodBankTransfer,
			AmountPaid:     amount,
			TransactionRef: reference,
			PromoCode:      input.PromoCode,
			ReceiptFileID:  input.ReceiptFileID,
		}
		if err := uc.persistAttempt(ctx, existing, enrollment, reference); err != nil {
			return nil, err
		}
		refreshProfileCache(ctx, uc.enrollmentRepo, uc.profileRepo, input.StudentID)
		return &domain.InitiateResult{Enrollment: enrollment}, nil

	case domain.MethodCard:
		user, err := uc.userRepo.GetByID(ctx, input.StudentID)
		if err != nil {
			return nil, err
		}

		reference := "lh_" + uuid.NewString()
		// Gateway first: if session creation fails nothing is persisted,
		// so no orphaned pending row can survive a gateway outage.
		session, err := uc.gateway.InitializeTransaction(ctx, user.Email, amount, reference, map[string]string{
			"course_slug": course.Slug,
			"student_id":  fmt.Sprintf("%d", input.StudentID),
			"promo_code":  input.PromoCode,
		})
		if err != nil {
			logger.Log.Warn("gateway initialize failed, nothing persisted",
				zap.String("course", course.Slug),
				zap.Uint("student", input.StudentID),
				zap.Error(err))
			return nil, err
		}

		enrollment := &domain.Enrollment{
			StudentID:      input.StudentID,
			CourseSlug:     course.Slug,
			CourseName:     course.Title,
			Status:         domain.EnrollmentPending,
			PaymentMethod:  domain.MethodCard,
			AmountPaid:     amount,
			TransactionRef: session.Reference,
			PromoCode:      input.PromoCode,
		}
		if err := uc.persistAttempt(ctx, existing, enrollment, session.Reference); err != nil {
			return nil, err
		}
		refreshProfileCache(ctx, uc.enrollmentRepo, uc.profileRepo, input.StudentID)
		return &domain.InitiateResult{
			Enrollment:       enrollment,
			AuthorizationURL: session.AuthorizationURL,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported payment method %q", input.Method)
	}
}

// persistAttempt writes the enrollment (replacing a stale pending/failed row
// in place) and its payment mirror row.
func (uc *enrollmentUsecase) persistAttempt(ctx context.Context, existing, enrollment *domain.Enrollment, reference string) error {
	if existing != nil {
		enrollment.ID = existing.ID
		enrollment.CreatedAt = existing.CreatedAt
		enrollment.CompletedLessons = existing.CompletedLessons
		if enrollment.CompletedLessons == nil {
			enrollment.CompletedLessons = []string{}
		}
		if err := uc.enrollmentRepo.Update(ctx, enrollment); err != nil {
			return err
		}
	} else {
		if err := uc.enrollmentRepo.Create(ctx, enrollment); err != nil {
			return err
		}
	}

	return uc.paymentRepo.Create(ctx, &domain.Payment{
		Reference:  reference,
		UserID:     enrollment.StudentID,
		CourseSlug: enrollment.CourseSlug,
		Method:     enrollment.PaymentMethod,
		Amount:     enrollment.AmountPaid,
		Status:     domain.PaymentPending,
	})
}

// ========== CONFIRM ==========

// Confirm reconciles a payment outcome with its enrollment. The webhook and
// the client verify poll both funnel here and may race; whichever arrives
// first performs the transition, the second is a no-op. The guard is the
// status check before mutating: an already-active enrollment re-confirmed
// with success returns current state and repeats no side effect.
func (uc *enrollmentUsecase) Confirm(ctx context.Context, reference string, outcome domain.Outcome) (*domain.Enrollment, error) {
	enrollment, err := uc.locateEnrollment(ctx, reference)
	if err != nil {
		logger.Log.Error("transaction has no matching enrollment",
			zap.String("reference", reference))
		return nil, err
	}

	switch outcome {
	case domain.OutcomePending:
		// Gateway still processing; leave the record untouched.
		return enrollment, nil

	case domain.OutcomeSuccess:
		if enrollment.Status == domain.EnrollmentActive {
			return enrollment, nil
		}
		now := time.Now()
		enrollment.Status = domain.EnrollmentActive
		enrollment.Paid = true
		enrollment.VerifiedAt = &now
		if enrollment.TransactionRef == "" {
			enrollment.TransactionRef = reference
		}
		if err := uc.enrollmentRepo.Update(ctx, enrollment); err != nil {
			return nil, err
		}

		uc.settlePayment(ctx, reference, domain.PaymentCompleted)

		if enrollment.PromoCode != "" {
			if err := uc.courseRepo.IncrementPromoUsage(ctx, enrollment.CourseSlug, enrollment.PromoCode); err != nil {
				logger.Log.Error("promo usage increment failed",
					zap.String("course", enrollment.CourseSlug),
					zap.String("code", enrollment.PromoCode),
					zap.Error(err))
			}
		}

		refreshProfileCache(ctx, uc.enrollmentRepo, uc.profileRepo, enrollment.StudentID)
		uc.notifyConfirmed(ctx, enrollment)

		logger.Log.Info("enrollment activated",
			zap.String("reference", reference),
			zap.String("course", enrollment.CourseSlug),
			zap.Uint("student", enrollment.StudentID))
		return enrollment, nil

	case domain.OutcomeFailed:
		if enrollment.Status == domain.EnrollmentActive {
			// Never regress a confirmed enrollment.
			logger.Log.Warn("failure outcome for active enrollment ignored",
				zap.String("reference", reference))
			return enrollment, nil
		}
		if enrollment.Status == domain.EnrollmentFailed {
			return enrollment, nil
		}
		enrollment.Status = domain.EnrollmentFailed
		if err := uc.enrollmentRepo.Update(ctx, enrollment); err != nil {
			return nil, err
		}
		uc.settlePayment(ctx, reference, domain.PaymentFailed)
		refreshProfileCache(ctx, uc.enrollmentRepo, uc.profileRepo, enrollment.StudentID)
		return enrollment, nil

	default:
		return nil, fmt.Errorf("unknown payment outcome %q", outcome)
	}
}

// locateEnrollment resolves a gateway reference, falling back through the
// payment row to (student, course) when the verify arrives before the
// reference was linked on the enrollment. The fallback only fires on a
// clean miss; store failures propagate as themselves.
func (uc *enrollmentUsecase) locateEnrollment(ctx context.Context, reference string) (*domain.Enrollment, error) {
	enrollment, err := uc.enrollmentRepo.GetByTransactionRef(ctx, reference)
	if err == nil {
		return enrollment, nil
	}
	if !errors.Is(err, domain.ErrEnrollmentNotFound) {
		return nil, err
	}

	payment, err := uc.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	enrollment, err = uc.enrollmentRepo.GetByStudentAndCourse(ctx, payment.UserID, payment.CourseSlug)
	if err != nil {
		if errors.Is(err, domain.ErrEnrollmentNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return enrollment, nil
}

func (uc *enrollmentUsecase) settlePayment(ctx context.Context, reference string, status domain.PaymentStatus) {
	payment, err := uc.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		logger.Log.Warn("no payment row for reference", zap.String("reference", reference))
		return
	}
	if payment.Status == status {
		return
	}
	payment.Status = status
	if err := uc.paymentRepo.Update(ctx, payment); err != nil {
		logger.Log.Error("payment row update failed", zap.String("reference", reference), zap.Error(err))
	}
}

func (uc *enrollmentUsecase) notifyConfirmed(ctx context.Context, enrollment *domain.Enrollment) {
	user, err := uc.userRepo.GetByID(ctx, enrollment.StudentID)
	if err != nil {
		return
	}
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your enrollment in <strong>%s</strong> is confirmed. Head to your classroom to get started.</p>",
		user.Name, enrollment.CourseName)
	uc.mailer.Send(user.Name, user.Email, "Enrollment confirmed: "+enrollment.CourseName, body)
}

// ========== VERIFY & WEBHOOK ==========

// VerifyPayment is the client-initiated "verify on return" path: ask the
// gateway for the true outcome, then reconcile.
func (uc *enrollmentUsecase) VerifyPayment(ctx context.Context, reference string) (*domain.Enrollment, error) {
	tx, err := uc.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	return uc.Confirm(ctx, reference, tx.Outcome)
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

// HandleWebhook validates the gateway signature over the raw body and
// funnels the carried outcome into Confirm.
func (uc *enrollmentUsecase) HandleWebhook(ctx context.Context, signature string, body []byte) error {
	if !uc.gateway.ValidateSignature(signature, body) {
		return domain.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("malformed webhook payload: %w", err)
	}

	var outcome domain.Outcome
	switch event.Event {
	case "charge.success":
		outcome = domain.OutcomeSuccess
	case "charge.failed":
		outcome = domain.OutcomeFailed
	default:
		switch event.Data.Status {
		case "success":
			outcome = domain.OutcomeSuccess
		case "failed", "abandoned", "reversed":
			outcome = domain.OutcomeFailed
		default:
			outcome = domain.OutcomePending
		}
	}

	_, err := uc.Confirm(ctx, event.Data.Reference, outcome)
	return err
}

// ========== BANK TRANSFER OVERRIDES ==========

// ApproveBankTransfer is the manual analogue of Confirm for receipts the
// admin has checked. Approving an already-active enrollment is a no-op.
func (uc *enrollmentUsecase) ApproveBankTransfer(ctx context.Context, enrollmentID string) (*domain.Enrollment, error) {
	enrollment, err := uc.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.PaymentMethod != domain.MethodBankTransfer {
		return nil, domain.ErrNotPendingBankTransfer
	}
	if enrollment.Status == domain.EnrollmentActive {
		return enrollment, nil
	}
	if enrollment.Status != domain.EnrollmentPending {
		return nil, domain.ErrNotPendingBankTransfer
	}

	return uc.Confirm(ctx, enrollment.TransactionRef, domain.OutcomeSuccess)
}

func (uc *enrollmentUsecase) RejectBankTransfer(ctx context.Context, enrollmentID string) (*domain.Enrollment, error) {
	enrollment, err := uc.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.PaymentMethod != domain.MethodBankTransfer {
		return nil, domain.ErrNotPendingBankTransfer
	}
	if enrollment.Status == domain.EnrollmentFailed {
		return enrollment, nil
	}
	if enrollment.Status != domain.EnrollmentPending {
		return nil, domain.ErrNotPendingBankTransfer
	}

	return uc.Confirm(ctx, enrollment.TransactionRef, domain.OutcomeFailed)
}

// ========== ADMIN OPERATIONS ==========

// RemoveEnrollment deletes the enrollment document and refreshes the
// profile cache. Payment rows and submissions stay for audit.
func (uc *enrollmentUsecase) RemoveEnrollment(ctx context.Context, studentID uint, slug string) error {
	if err := uc.enrollmentRepo.Delete(ctx, studentID, slug); err != nil {
		return err
	}
	refreshProfileCache(ctx, uc.enrollmentRepo, uc.profileRepo, studentID)
	return nil
}

// OverrideProgress is the admin manual completion override.
func (uc *enrollmentUsecase) OverrideProgress(ctx context.Context, studentID uint, slug string, progress int) (*domain.Enrollment, error) {
	if progress < 0 || progress > 100 {
		return nil, fmt.Errorf("progress must be between 0 and 100")
	}
	enrollment, err := uc.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, slug)
	if err != nil {
		return nil, err
	}
	enrollment.Progress = progress
	if err := uc.enrollmentRepo.Update(ctx, enrollment); err != nil {
		return nil, err
	}
	refreshProfileCache(ctx, uc.enrollmentRepo, uc.profileRepo, studentID)
	return enrollment, nil
}

// ========== STUDENT VIEW ==========

// GetStudentEnrollments merges the profile cache with live course metadata.
// Progress is always recomputed against the current course tree; the cached
// number is only a fallback when the course is gone.
func (uc *enrollmentUsecase) GetStudentEnrollments(ctx context.Context, studentID uint) ([]domain.EnrolledCourseView, error) {
	enrollments, err := uc.enrollmentRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	views := []domain.EnrolledCourseView{}
	for _, e := range enrollments {
		if e.Status == domain.EnrollmentFailed {
			continue
		}
		view := domain.EnrolledCourseView{
			EnrolledCourseSummary: domain.EnrolledCourseSummary{
				CourseSlug: e.CourseSlug,
				CourseName: e.CourseName,
				Paid:       e.Paid,
				Amount:     e.AmountPaid,
				EnrolledAt: e.CreatedAt,
				Progress:   e.Progress,
			},
			Status: e.Status,
		}
		if course, err := uc.courseRepo.GetBySlug(ctx, e.CourseSlug); err == nil {
			view.Level = course.Level
			view.Duration = course.Duration
			view.TotalLessons = course.TotalLessons()
			view.Progress = ComputeProgress(&e, course)
		}
		views = append(views, view)
	}
	return views, nil
}

// ========== PROFILE CACHE ==========

// refreshProfileCache rewrites the denormalized enrolledCourses list on the
// student profile from the authoritative enrollments. There is no
// cross-collection transaction; a failure here is logged and the next
// enrollment mutation rewrites the whole list, so the cache self-heals.
func refreshProfileCache(ctx context.Context, enrollmentRepo domain.EnrollmentRepository, profileRepo domain.StudentProfileRepository, studentID uint) {
	enrollments, err := enrollmentRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		logger.Log.Warn("profile cache refresh: enrollment fetch failed",
			zap.Uint("student", studentID), zap.Error(err))
		return
	}

	summaries := []domain.EnrolledCourseSummary{}
	for _, e := range enrollments {
		if e.Status == domain.EnrollmentFailed {
			continue
		}
		summaries = append(summaries, domain.EnrolledCourseSummary{
			CourseSlug: e.CourseSlug,
			CourseName: e.CourseName,
			Paid:       e.Paid,
			Amount:     e.AmountPaid,
			EnrolledAt: e.CreatedAt,
			Progress:   e.Progress,
		})
	}

	if err := profileRepo.ReplaceEnrolledCourses(ctx, studentID, summaries); err != nil {
		logger.Log.Warn("profile cache refresh failed",
			zap.Uint("student", studentID), zap.Error(err))
	}
}
