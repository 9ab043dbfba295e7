package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	delivery "learnhub-backend/internal/delivery/http"
	"learnhub-backend/internal/domain"
)

type MockEnrollmentUsecase struct {
	mock.Mock
}

func (m *MockEnrollmentUsecase) Initiate(ctx context.Context, input domain.InitiateInput) (*domain.InitiateResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InitiateResult), args.Error(1)
}

func (m *MockEnrollmentUsecase) Confirm(ctx context.Context, reference string, outcome domain.Outcome) (*domain.Enrollment, error) {
	args := m.Called(ctx, reference, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *MockEnrollmentUsecase) VerifyPayment(ctx context.Context, reference string) (*domain.Enrollment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *MockEnrollmentUsecase) HandleWebhook(ctx context.Context, signature string, body []byte) error {
	args := m.Called(ctx, signature, body)
	return args.Error(0)
}

func (m *MockEnrollmentUsecase) ApproveBankTransfer(ctx context.Context, enrollmentID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, enrollmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *MockEnrollmentUsecase) RejectBankTransfer(ctx context.Context, enrollmentID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, enrollmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *MockEnrollmentUsecase) RemoveEnrollment(ctx context.Context, studentID uint, slug string) error {
	args := m.Called(ctx, studentID, slug)
	return args.Error(0)
}

func (m *MockEnrollmentUsecase) OverrideProgress(ctx context.Context, studentID uint, slug string, progress int) (*domain.Enrollment, error) {
	args := m.Called(ctx, studentID, slug, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *MockEnrollmentUsecase) GetStudentEnrollments(ctx context.Context, studentID uint) ([]domain.EnrolledCourseView, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EnrolledCourseView), args.Error(1)
}

func setupRouter(handler *delivery.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.POST("/payments/webhook", handler.PaymentWebhook)

	authed := r.Group("/")
	authed.Use(func(c *gin.Context) {
		c.Set("user_id", uint(7))
		c.Set("role", "student")
		c.Next()
	})
	authed.POST("/enrollments", handler.InitiateEnrollment)
	authed.GET("/payments/verify/:reference", handler.VerifyPayment)

	return r
}

func TestInitiateEnrollmentHandler(t *testing.T) {
	t.Run("card checkout returns authorization url", func(t *testing.T) {
		mockUsecase := new(MockEnrollmentUsecase)
		handler := delivery.NewHandler(nil, nil, mockUsecase, nil, nil, nil, nil, nil, nil)
		router := setupRouter(handler)

		mockUsecase.On("Initiate", mock.Anything, domain.InitiateInput{
			StudentID:  7,
			CourseSlug: "go-basics",
			Method:     domain.MethodCard,
		}).Return(&domain.InitiateResult{
			Enrollment:       &domain.Enrollment{CourseSlug: "go-basics", Status: domain.EnrollmentPending},
			AuthorizationURL: "https://checkout.test/x",
		}, nil).Once()

		body, _ := json.Marshal(gin.H{"course_slug": "go-basics", "payment_method": "card"})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/enrollments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "https://checkout.test/x", response["authorization_url"])
	})

	t.Run("already active returns 200 not 201", func(t *testing.T) {
		mockUsecase := new(MockEnrollmentUsecase)
		handler := delivery.NewHandler(nil, nil, mockUsecase, nil, nil, nil, nil, nil, nil)
		router := setupRouter(handler)

		mockUsecase.On("Initiate", mock.Anything, mock.Anything).Return(&domain.InitiateResult{
			Enrollment:    &domain.Enrollment{Status: domain.EnrollmentActive},
			AlreadyActive: true,
		}, nil).Once()

		body, _ := json.Marshal(gin.H{"course_slug": "go-basics", "payment_method": "card"})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/enrollments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid promo maps to 400", func(t *testing.T) {
		mockUsecase := new(MockEnrollmentUsecase)
		handler := delivery.NewHandler(nil, nil, mockUsecase, nil, nil, nil, nil, nil, nil)
		router := setupRouter(handler)

		mockUsecase.On("Initiate", mock.Anything, mock.Anything).
			Return(nil, domain.ErrInvalidPromoCode).Once()

		body, _ := json.Marshal(gin.H{"course_slug": "go-basics", "payment_method": "card", "promo_code": "NOPE"})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/enrollments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad payment method rejected by binding", func(t *testing.T) {
		mockUsecase := new(MockEnrollmentUsecase)
		handler := delivery.NewHandler(nil, nil, mockUsecase, nil, nil, nil, nil, nil, nil)
		router := setupRouter(handler)

		body, _ := json.Marshal(gin.H{"course_slug": "go-basics", "payment_method": "cash"})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/enrollments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUsecase.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
	})
}

func TestPaymentWebhookHandler(t *testing.T) {
	t.Run("signature header reaches the usecase with the raw body", func(t *testing.T) {
		mockUsecase := new(MockEnrollmentUsecase)
		handler := delivery.NewHandler(nil, nil, mockUsecase, nil, nil, nil, nil, nil, nil)
		router := setupRouter(handler)

		payload := []byte(`{"event":"charge.success","data":{"reference":"lh_abc"}}`)
		mockUsecase.On("HandleWebhook", mock.Anything, "sig123", payload).Return(nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/payments/webhook", bytes.NewReader(payload))
		req.Header.Set("x-paystack-signature", "sig123")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("invalid signature maps to 401", func(t *testing.T) {
		mockUsecase := new(MockEnrollmentUsecase)
		handler := delivery.NewHandler(nil, nil, mockUsecase, nil, nil, nil, nil, nil, nil)
		router := setupRouter(handler)

		mockUsecase.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything).
			Return(domain.ErrInvalidSignature).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/payments/webhook", bytes.NewReader([]byte(`{}`)))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown reference maps to 404", func(t *testing.T) {
		mockUsecase := new(MockEnrollmentUsecase)
		handler := delivery.NewHandler(nil, nil, mockUsecase, nil, nil, nil, nil, nil, nil)
		router := setupRouter(handler)

		mockUsecase.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything).
			Return(domain.ErrTransactionNotFound).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/payments/webhook", bytes.NewReader([]byte(`{}`)))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestVerifyPaymentHandler(t *testing.T) {
	t.Run("returns reconciled enrollment", func(t *testing.T) {
		mockUsecase := new(MockEnrollmentUsecase)
		handler := delivery.NewHandler(nil, nil, mockUsecase, nil, nil, nil, nil, nil, nil)
		router := setupRouter(handler)

		mockUsecase.On("VerifyPayment", mock.Anything, "lh_abc").Return(&domain.Enrollment{
			CourseSlug: "go-basics",
			Status:     domain.EnrollmentActive,
			Paid:       true,
		}, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/payments/verify/lh_abc", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Enrollment domain.Enrollment `json:"enrollment"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, domain.EnrollmentActive, response.Enrollment.Status)
	})
}
