package usecase

import (
	"context"
	"errors"
	"time"

	"learnhub-backend/internal/domain"
)

type courseUsecase struct {
	courseRepo     domain.CourseRepository
	enrollmentRepo domain.EnrollmentRepository
}

func NewCourseUsecase(cr domain.CourseRepository, er domain.EnrollmentRepository) domain.CourseUsecase {
	return &courseUsecase{courseRepo: cr, enrollmentRepo: er}
}

func (uc *courseUsecase) CreateCourse(ctx context.Context, course *domain.Course) error {
	if course.Slug == "" || course.Title == "" {
		return errors.New("slug and title are required")
	}
	if existing, _ := uc.courseRepo.GetBySlug(ctx, course.Slug); existing != nil {
		return errors.New("course slug already exists")
	}
	if course.Modules == nil {
		course.Modules = []domain.Module{}
	}
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	return uc.courseRepo.Create(ctx, course)
}

// UpdateCourse changes course metadata. Content goes through SaveContent.
func (uc *courseUsecase) UpdateCourse(ctx context.Context, course *domain.Course) error {
	existing, err := uc.courseRepo.GetBySlug(ctx, course.Slug)
	if err != nil {
		return domain.ErrCourseNotFound
	}
	if course.Title != "" {
		existing.Title = course.Title
	}
	if course.Description != "" {
		existing.Description = course.Description
	}
	if course.Level != "" {
		existing.Level = course.Level
	}
	if course.Duration != "" {
		existing.Duration = course.Duration
	}
	if course.Price >= 0 {
		existing.Price = course.Price
	}
	existing.UpdatedAt = time.Now()
	return uc.courseRepo.Replace(ctx, existing)
}

// SaveContent replaces the whole content tree in one write. The editor's
// auto-save sends the full tree each time; concurrent saves resolve as
// last writer wins. Promo used_count values already accrued survive a save
// that carries stale counts, because counts are re-read from the stored
// document before the replace.
func (uc *courseUsecase) SaveContent(ctx context.Context, slug string, modules []domain.Module, promos []domain.PromoCode) (*domain.Course, error) {
	course, err := uc.courseRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, domain.ErrCourseNotFound
	}

	if modules == nil {
		modules = []domain.Module{}
	}
	course.Modules = modules

	if promos != nil {
		// Carry over live usage counts so an editor save cannot reset them.
		current := map[string]int{}
		for _, p := range course.PromoCodes {
			current[p.Code] = p.UsedCount
		}
		for i := range promos {
			if used, ok := current[promos[i].Code]; ok {
				promos[i].UsedCount = used
			}
		}
		course.PromoCodes = promos
	}

	course.UpdatedAt = time.Now()
	if err := uc.courseRepo.Replace(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (uc *courseUsecase) PublishCourse(ctx context.Context, slug string, published bool) error {
	course, err := uc.courseRepo.GetBySlug(ctx, slug)
	if err != nil {
		return domain.ErrCourseNotFound
	}
	course.Published = published
	course.UpdatedAt = time.Now()
	return uc.courseRepo.Replace(ctx, course)
}

func (uc *courseUsecase) DeleteCourse(ctx context.Context, slug string) error {
	enrollments, err := uc.enrollmentRepo.GetByCourseSlug(ctx, slug)
	if err != nil {
		return err
	}
	for _, e := range enrollments {
		if e.Status == domain.EnrollmentActive {
			return errors.New("course has active enrollments")
		}
	}
	return uc.courseRepo.Delete(ctx, slug)
}

func (uc *courseUsecase) GetCatalog(ctx context.Context) ([]domain.Course, error) {
	return uc.courseRepo.GetPublished(ctx)
}

func (uc *courseUsecase) GetAllCourses(ctx context.Context) ([]domain.Course, error) {
	return uc.courseRepo.GetAll(ctx)
}

// GetCourseDetail returns the course plus whether the requesting user holds
// an active enrollment. Unpublished courses are hidden from everyone but
// admins, which the handler decides; here an unpublished course without a
// user is treated as not found.
func (uc *courseUsecase) GetCourseDetail(ctx context.Context, slug string, userID *uint) (*domain.Course, bool, error) {
	course, err := uc.courseRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, false, domain.ErrCourseNotFound
	}

	enrolled := false
	if userID != nil {
		if e, err := uc.enrollmentRepo.GetByStudentAndCourse(ctx, *userID, slug); err == nil {
			enrolled = e.Status == domain.EnrollmentActive
		}
	}

	if !course.Published && !enrolled {
		return nil, false, domain.ErrCourseNotFound
	}

	// Lesson content URLs are stripped for non-enrolled viewers; the catalog
	// detail shows the outline only.
	if !enrolled {
		for mi := range course.Modules {
			for li := range course.Modules[mi].Lessons {
				course.Modules[mi].Lessons[li].ContentURL = ""
			}
		}
	}

	return course, enrolled, nil
}
