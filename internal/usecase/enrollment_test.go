package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"learnhub-backend/internal/domain"
)

type enrollmentFixture struct {
	enrollmentRepo *MockEnrollmentRepo
	courseRepo     *MockCourseRepo
	paymentRepo    *MockPaymentRepo
	userRepo       *MockUserRepo
	profileRepo    *MockProfileRepo
	gateway        *MockGateway
	mailer         *MockMailer
	uc             domain.EnrollmentUsecase
}

func newEnrollmentFixture() *enrollmentFixture {
	f := &enrollmentFixture{
		enrollmentRepo: new(MockEnrollmentRepo),
		courseRepo:     new(MockCourseRepo),
		paymentRepo:    new(MockPaymentRepo),
		userRepo:       new(MockUserRepo),
		profileRepo:    new(MockProfileRepo),
		gateway:        new(MockGateway),
		mailer:         new(MockMailer),
	}
	f.uc = NewEnrollmentUsecase(
		f.enrollmentRepo, f.courseRepo, f.paymentRepo, f.userRepo,
		f.profileRepo, f.gateway, f.mailer)
	return f
}

func paidCourse() *domain.Course {
	c := courseWithLessons("l1", "l2")
	c.Price = 200
	c.PromoCodes = []domain.PromoCode{
		{Code: "LAUNCH50", DiscountPercent: 50, MaxUses: 10, UsedCount: 3},
		{Code: "SOLDOUT", DiscountPercent: 20, MaxUses: 5, UsedCount: 5},
	}
	return c
}

// ========== INITIATE ==========

func TestInitiate(t *testing.T) {
	ctx := context.Background()

	t.Run("gateway failure leaves nothing behind", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.courseRepo.On("GetBySlug", ctx, "go-basics").Return(paidCourse(), nil)
		f.enrollmentRepo.On("GetByStudentAndCourse", ctx, uint(7), "go-basics").Return(nil, domain.ErrEnrollmentNotFound)
		f.userRepo.On("GetByID", ctx, uint(7)).Return(&domain.User{ID: 7, Email: "a@b.io"}, nil)
		f.gateway.On("InitializeTransaction", ctx, "a@b.io", 200.0, mock.Anything, mock.Anything).
			Return(nil, domain.ErrGatewayUnavailable)

		_, err := f.uc.Initiate(ctx, domain.InitiateInput{
			StudentID: 7, CourseSlug: "go-basics", Method: domain.MethodCard,
		})
		assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
		f.enrollmentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("card checkout persists pending enrollment and payment", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.courseRepo.On("GetBySlug", ctx, "go-basics").Return(paidCourse(), nil)
		f.enrollmentRepo.On("GetByStudentAndCourse", ctx, uint(7), "go-basics").Return(nil, domain.ErrEnrollmentNotFound)
		f.userRepo.On("GetByID", ctx, uint(7)).Return(&domain.User{ID: 7, Email: "a@b.io"}, nil)
		f.gateway.On("InitializeTransaction", ctx, "a@b.io", 200.0, mock.Anything, mock.Anything).
			Return(&domain.CheckoutSession{Reference: "lh_abc", AuthorizationURL: "https://checkout.test/abc"}, nil)
		f.enrollmentRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.Enrollment) bool {
			return e.Status == domain.EnrollmentPending && e.TransactionRef == "lh_abc" && !e.Paid
		})).Return(nil)
		f.paymentRepo.On("Create", ctx, mock.MatchedBy(func(p *domain.Payment) bool {
			return p.Reference == "lh_abc" && p.Status == domain.PaymentPending
		})).Return(nil)
		f.enrollmentRepo.On("GetByStudentID", ctx, uint(7)).Return([]domain.Enrollment{}, nil)
		f.profileRepo.On("ReplaceEnrolledCourses", ctx, uint(7), mock.Anything).Return(nil)

		result, err := f.uc.Initiate(ctx, domain.InitiateInput{
			StudentID: 7, CourseSlug: "go-basics", Method: domain.MethodCard,
		})
		assert.NoError(t, err)
		assert.Equal(t, "https://checkout.test/abc", result.AuthorizationURL)
		assert.False(t, result.AlreadyActive)
	})

	t.Run("promo discount applied to gateway amount", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.courseRepo.On("GetBySlug", ctx, "go-basics").Return(paidCourse(), nil)
		f.enrollmentRepo.On("GetByStudentAndCourse", ctx, uint(7), "go-basics").Return(nil, domain.ErrEnrollmentNotFound)
		f.userRepo.On("GetByID", ctx, uint(7)).Return(&domain.User{ID: 7, Email: "a@b.io"}, nil)
		f.gateway.On("InitializeTransaction", ctx, "a@b.io", 100.0, mock.Anything, mock.Anything).
			Return(&domain.CheckoutSession{Reference: "lh_abc"}, nil)
		f.enrollmentRepo.On("Create", ctx, mock.Anything).Return(nil)
		f.paymentRepo.On("Create", ctx, mock.Anything).Return(nil)
		f.enrollmentRepo.On("GetByStudentID", ctx, uint(7)).Return([]domain.Enrollment{}, nil)
		f.profileRepo.On("ReplaceEnrolledCourses", ctx, uint(7), mock.Anything).Return(nil)

		_, err := f.uc.Initiate(ctx, domain.InitiateInput{
			StudentID: 7, CourseSlug: "go-basics", Method: domain.MethodCard, PromoCode: "LAUNCH50",
		})
		assert.NoError(t, err)
		f.gateway.AssertExpectations(t)
	})

	t.Run("unknown promo rejected", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.courseRepo.On("GetBySlug", ctx, "go-basics").Return(paidCourse(), nil)
		f.enrollmentRepo.On("GetByStudentAndCourse", ctx, uint(7), "go-basics").Return(nil, domain.ErrEnrollmentNotFound)

		_, err := f.uc.Initiate(ctx, domain.InitiateInput{
			StudentID: 7, CourseSlug: "go-basics", Method: domain.MethodCard, PromoCode: "NOPE",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPromoCode)
	})

	t.Run("exhausted promo rejected", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.courseRepo.On("GetBySlug", ctx, "go-basics").Return(paidCourse(), nil)
		f.enrollmentRepo.On("GetByStudentAndCourse", ctx, uint(7), "go-basics").Return(nil, domain.ErrEnrollmentNotFound)

		_, err := f.uc.Initiate(ctx, domain.InitiateInput{
			StudentID: 7, CourseSlug: "go-basics", Method: domain.MethodCard, PromoCode: "SOLDOUT",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPromoCode)
	})

	t.Run("bank transfer requires a receipt", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.courseRepo.On("GetBySlug", ctx, "go-basics").Return(paidCourse(), nil)
		f.enrollmentRepo.On("GetByStudentAndCourse", ctx, uint(7), "go-basics").Return(nil, domain.ErrEnrollmentNotFound)

		_, err := f.uc.Initiate(ctx, domain.InitiateInput{
			StudentID: 7, CourseSlug: "go-basics", Method: domain.MethodBankTransfer,
		})
		assert.ErrorIs(t, err, domain.ErrReceiptRequired)
	})

	t.Run("active enrollment short-circuits", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.courseRepo.On("GetBySlug", ctx, "go-basics").Return(paidCourse(), nil)
		f.enrollmentRepo.On("GetByStudentAndCourse", ctx, uint(7), "go-basics").
			Return(&domain.Enrollment{Status: domain.EnrollmentActive}, nil)

		result, err := f.uc.Initiate(ctx, domain.InitiateInput{
			StudentID: 7, CourseSlug: "go-basics", Method: domain.MethodCard,
		})
		assert.NoError(t, err)
		assert.True(t, result.AlreadyActive)
		f.gateway.AssertNotCalled(t, "InitializeTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unpublished course hidden", func(t *testing.T) {
		f := newEnrollmentFixture()
		hidden := paidCourse()
		hidden.Published = false
		f.courseRepo.On("GetBySlug", ctx, "go-basics").Return(hidden, nil)

		_, err := f.uc.Initiate(ctx, domain.InitiateInput{
			StudentID: 7, CourseSlug: "go-basics", Method: domain.MethodCard,
		})
		assert.ErrorIs(t, err, domain.ErrCourseNotFound)
	})
}

// ========== CONFIRM ==========

func pendingCardEnrollment() *domain.Enrollment {
	return &domain.Enrollment{
		StudentID:      7,
		CourseSlug:     "go-basics",
		CourseName:     "Go Basics",
		Status:         domain.EnrollmentPending,
		PaymentMethod:  domain.MethodCard,
		AmountPaid:     100,
		TransactionRef: "lh_abc",
		PromoCode:      "LAUNCH50",
	}
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("success activates and increments promo once", func(t *testing.T) {
		f := newEnrollmentFixture()
		enrollment := pendingCardEnrollment()

		f.enrollmentRepo.On("GetByTransactionRef", ctx, "lh_abc").Return(enrollment, nil)
		f.enrollmentRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Enrollment) bool {
			return e.Status == domain.EnrollmentActive && e.Paid && e.VerifiedAt != nil
		})).Return(nil)
		f.paymentRepo.On("GetByReference", ctx, "lh_abc").
			Return(&domain.Payment{Reference: "lh_abc", Status: domain.PaymentPending}, nil)
		f.paymentRepo.On("Update", ctx, mock.MatchedBy(func(p *domain.Payment) bool {
			return p.Status == domain.PaymentCompleted
		})).Return(nil)
		f.courseRepo.On("IncrementPromoUsage", ctx, "go-basics", "LAUNCH50").Return(nil).Once()
		f.enrollmentRepo.On("GetByStudentID", ctx, uint(7)).Return([]domain.Enrollment{*enrollment}, nil)
		f.profileRepo.On("ReplaceEnrolledCourses", ctx, uint(7), mock.Anything).Return(nil)
		f.userRepo.On("GetByID", ctx, uint(7)).Return(&domain.User{ID: 7, Name: "Ada", Email: "a@b.io"}, nil)
		f.mailer.On("Send", "Ada", "a@b.io", mock.Anything, mock.Anything).Return()

		got, err := f.uc.Confirm(ctx, "lh_abc", domain.OutcomeSuccess)
		assert.NoError(t, err)
		assert.Equal(t, domain.EnrollmentActive, got.Status)
		f.courseRepo.AssertExpectations(t)
	})

	t.Run("second success confirmation is a no-op", func(t *testing.T) {
		f := newEnrollmentFixture()
		active := pendingCardEnrollment()
		active.Status = domain.EnrollmentActive
		active.Paid = true

		f.enrollmentRepo.On("GetByTransactionRef", ctx, "lh_abc").Return(active, nil)

		got, err := f.uc.Confirm(ctx, "lh_abc", domain.OutcomeSuccess)
		assert.NoError(t, err)
		assert.Equal(t, domain.EnrollmentActive, got.Status)
		f.enrollmentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.courseRepo.AssertNotCalled(t, "IncrementPromoUsage", mock.Anything, mock.Anything, mock.Anything)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pending outcome leaves the record untouched", func(t *testing.T) {
		f := newEnrollmentFixture()
		enrollment := pendingCardEnrollment()
		f.enrollmentRepo.On("GetByTransactionRef", ctx, "lh_abc").Return(enrollment, nil)

		got, err := f.uc.Confirm(ctx, "lh_abc", domain.OutcomePending)
		assert.NoError(t, err)
		assert.Equal(t, domain.EnrollmentPending, got.Status)
		f.enrollmentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("failure never regresses an active enrollment", func(t *testing.T) {
		f := newEnrollmentFixture()
		active := pendingCardEnrollment()
		active.Status = domain.EnrollmentActive

		f.enrollmentRepo.On("GetByTransactionRef", ctx, "lh_abc").Return(active, nil)

		got, err := f.uc.Confirm(ctx, "lh_abc", domain.OutcomeFailed)
		assert.NoError(t, err)
		assert.Equal(t, domain.EnrollmentActive, got.Status)
		f.enrollmentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("failure marks pending as failed", func(t *testing.T) {
		f := newEnrollmentFixture()
		enrollment := pendingCardEnrollment()

		f.enrollmentRepo.On("GetByTransactionRef", ctx, "lh_abc").Return(enrollment, nil)
		f.enrollmentRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Enrollment) bool {
			return e.Status == domain.EnrollmentFailed
		})).Return(nil)
		f.paymentRepo.On("GetByReference", ctx, "lh_abc").
			Return(&domain.Payment{Reference: "lh_abc", Status: domain.PaymentPending}, nil)
		f.paymentRepo.On("Update", ctx, mock.Anything).Return(nil)
		f.enrollmentRepo.On("GetByStudentID", ctx, uint(7)).Return([]domain.Enrollment{}, nil)
		f.profileRepo.On("ReplaceEnrolledCourses", ctx, uint(7), mock.Anything).Return(nil)

		got, err := f.uc.Confirm(ctx, "lh_abc", domain.OutcomeFailed)
		assert.NoError(t, err)
		assert.Equal(t, domain.EnrollmentFailed, got.Status)
	})

	t.Run("unknown reference surfaces", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.enrollmentRepo.On("GetByTransactionRef", ctx, "ghost").Return(nil, domain.ErrEnrollmentNotFound)
		f.paymentRepo.On("GetByReference", ctx, "ghost").Return(nil, domain.ErrTransactionNotFound)

		_, err := f.uc.Confirm(ctx, "ghost", domain.OutcomeSuccess)
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("store failure is not masked as not found", func(t *testing.T) {
		f := newEnrollmentFixture()
		dbErr := errors.New("connection reset")
		f.enrollmentRepo.On("GetByTransactionRef", ctx, "lh_abc").Return(nil, dbErr)

		_, err := f.uc.Confirm(ctx, "lh_abc", domain.OutcomeSuccess)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, domain.ErrTransactionNotFound)
		f.paymentRepo.AssertNotCalled(t, "GetByReference", mock.Anything, mock.Anything)
	})
}

// ========== WEBHOOK ==========

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("bad signature rejected before parsing", func(t *testing.T) {
		f := newEnrollmentFixture()
		body := []byte(`{"event":"charge.success","data":{"reference":"lh_abc"}}`)
		f.gateway.On("ValidateSignature", "bogus", body).Return(false)

		err := f.uc.HandleWebhook(ctx, "bogus", body)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		f.enrollmentRepo.AssertNotCalled(t, "GetByTransactionRef", mock.Anything, mock.Anything)
	})

	t.Run("charge success funnels into confirm", func(t *testing.T) {
		f := newEnrollmentFixture()
		active := pendingCardEnrollment()
		active.Status = domain.EnrollmentActive
		body := []byte(`{"event":"charge.success","data":{"reference":"lh_abc","status":"success"}}`)

		f.gateway.On("ValidateSignature", "sig", body).Return(true)
		f.enrollmentRepo.On("GetByTransactionRef", ctx, "lh_abc").Return(active, nil)

		err := f.uc.HandleWebhook(ctx, "sig", body)
		assert.NoError(t, err)
	})
}

// ========== BANK TRANSFER ==========

func TestApproveBankTransfer(t *testing.T) {
	ctx := context.Background()

	pendingBank := func() *domain.Enrollment {
		return &domain.Enrollment{
			StudentID:      7,
			CourseSlug:     "go-basics",
			CourseName:     "Go Basics",
			Status:         domain.EnrollmentPending,
			PaymentMethod:  domain.MethodBankTransfer,
			TransactionRef: "bank_xyz",
			ReceiptFileID:  "file123",
		}
	}

	t.Run("approval activates", func(t *testing.T) {
		f := newEnrollmentFixture()
		enrollment := pendingBank()

		f.enrollmentRepo.On("GetByID", ctx, "abc").Return(enrollment, nil)
		f.enrollmentRepo.On("GetByTransactionRef", ctx, "bank_xyz").Return(enrollment, nil)
		f.enrollmentRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Enrollment) bool {
			return e.Status == domain.EnrollmentActive
		})).Return(nil)
		f.paymentRepo.On("GetByReference", ctx, "bank_xyz").
			Return(&domain.Payment{Reference: "bank_xyz", Status: domain.PaymentPending}, nil)
		f.paymentRepo.On("Update", ctx, mock.Anything).Return(nil)
		f.enrollmentRepo.On("GetByStudentID", ctx, uint(7)).Return([]domain.Enrollment{*enrollment}, nil)
		f.profileRepo.On("ReplaceEnrolledCourses", ctx, uint(7), mock.Anything).Return(nil)
		f.userRepo.On("GetByID", ctx, uint(7)).Return(&domain.User{ID: 7, Name: "Ada", Email: "a@b.io"}, nil)
		f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

		got, err := f.uc.ApproveBankTransfer(ctx, "abc")
		assert.NoError(t, err)
		assert.Equal(t, domain.EnrollmentActive, got.Status)
	})

	t.Run("double approval is a no-op", func(t *testing.T) {
		f := newEnrollmentFixture()
		active := pendingBank()
		active.Status = domain.EnrollmentActive

		f.enrollmentRepo.On("GetByID", ctx, "abc").Return(active, nil)

		got, err := f.uc.ApproveBankTransfer(ctx, "abc")
		assert.NoError(t, err)
		assert.Equal(t, domain.EnrollmentActive, got.Status)
		f.enrollmentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("card enrollment cannot be approved manually", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.enrollmentRepo.On("GetByID", ctx, "abc").Return(pendingCardEnrollment(), nil)

		_, err := f.uc.ApproveBankTransfer(ctx, "abc")
		assert.ErrorIs(t, err, domain.ErrNotPendingBankTransfer)
	})

	t.Run("rejection marks failed", func(t *testing.T) {
		f := newEnrollmentFixture()
		enrollment := pendingBank()

		f.enrollmentRepo.On("GetByID", ctx, "abc").Return(enrollment, nil)
		f.enrollmentRepo.On("GetByTransactionRef", ctx, "bank_xyz").Return(enrollment, nil)
		f.enrollmentRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Enrollment) bool {
			return e.Status == domain.EnrollmentFailed
		})).Return(nil)
		f.paymentRepo.On("GetByReference", ctx, "bank_xyz").
			Return(&domain.Payment{Reference: "bank_xyz", Status: domain.PaymentPending}, nil)
		f.paymentRepo.On("Update", ctx, mock.Anything).Return(nil)
		f.enrollmentRepo.On("GetByStudentID", ctx, uint(7)).Return([]domain.Enrollment{}, nil)
		f.profileRepo.On("ReplaceEnrolledCourses", ctx, uint(7), mock.Anything).Return(nil)

		got, err := f.uc.RejectBankTransfer(ctx, "abc")
		assert.NoError(t, err)
		assert.Equal(t, domain.EnrollmentFailed, got.Status)
	})
}

// ========== ADMIN OVERRIDES ==========

func TestOverrideProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("out of range rejected", func(t *testing.T) {
		f := newEnrollmentFixture()
		_, err := f.uc.OverrideProgress(ctx, 7, "go-basics", 120)
		assert.Error(t, err)

		_, err = f.uc.OverrideProgress(ctx, 7, "go-basics", -1)
		assert.Error(t, err)
	})

	t.Run("valid override persists", func(t *testing.T) {
		f := newEnrollmentFixture()
		enrollment := pendingCardEnrollment()
		enrollment.Status = domain.EnrollmentActive

		f.enrollmentRepo.On("GetByStudentAndCourse", ctx, uint(7), "go-basics").Return(enrollment, nil)
		f.enrollmentRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Enrollment) bool {
			return e.Progress == 100
		})).Return(nil)
		f.enrollmentRepo.On("GetByStudentID", ctx, uint(7)).Return([]domain.Enrollment{*enrollment}, nil)
		f.profileRepo.On("ReplaceEnrolledCourses", ctx, uint(7), mock.Anything).Return(nil)

		got, err := f.uc.OverrideProgress(ctx, 7, "go-basics", 100)
		assert.NoError(t, err)
		assert.Equal(t, 100, got.Progress)
	})
}

func TestRemoveEnrollment(t *testing.T) {
	ctx := context.Background()

	t.Run("delete refreshes the cache", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.enrollmentRepo.On("Delete", ctx, uint(7), "go-basics").Return(nil)
		f.enrollmentRepo.On("GetByStudentID", ctx, uint(7)).Return([]domain.Enrollment{}, nil)
		f.profileRepo.On("ReplaceEnrolledCourses", ctx, uint(7), []domain.EnrolledCourseSummary{}).Return(nil)

		assert.NoError(t, f.uc.RemoveEnrollment(ctx, 7, "go-basics"))
		f.profileRepo.AssertExpectations(t)
	})

	t.Run("delete failure surfaces", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.enrollmentRepo.On("Delete", ctx, uint(7), "go-basics").Return(errors.New("db down"))

		assert.Error(t, f.uc.RemoveEnrollment(ctx, 7, "go-basics"))
		f.profileRepo.AssertNotCalled(t, "ReplaceEnrolledCourses", mock.Anything, mock.Anything, mock.Anything)
	})
}

// ========== STUDENT VIEW ==========

func TestGetStudentEnrollments(t *testing.T) {
	ctx := context.Background()

	t.Run("progress recomputed from current course tree", func(t *testing.T) {
		f := newEnrollmentFixture()
		course := courseWithLessons("l1", "l2", "l3", "l4")
		f.enrollmentRepo.On("GetByStudentID", ctx, uint(7)).Return([]domain.Enrollment{
			{
				StudentID:        7,
				CourseSlug:       "go-basics",
				CourseName:       "Go Basics",
				Status:           domain.EnrollmentActive,
				Progress:         50, // stale cache value
				CompletedLessons: []string{"l1"},
			},
			{StudentID: 7, CourseSlug: "gone", Status: domain.EnrollmentFailed},
		}, nil)
		f.courseRepo.On("GetBySlug", ctx, "go-basics").Return(course, nil)

		views, err := f.uc.GetStudentEnrollments(ctx, 7)
		assert.NoError(t, err)
		assert.Len(t, views, 1)
		assert.Equal(t, 25, views[0].Progress)
		assert.Equal(t, 4, views[0].TotalLessons)
	})
}
