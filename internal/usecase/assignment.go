package usecase

import (
	"context"
	"errors"
	"time"

	"learnhub-backend/internal/domain"
)

type assignmentUsecase struct {
	assignmentRepo domain.AssignmentRepository
	submissionRepo domain.SubmissionRepository
	courseRepo     domain.CourseRepository
}

func NewAssignmentUsecase(ar domain.AssignmentRepository, sr domain.SubmissionRepository, cr domain.CourseRepository) domain.AssignmentUsecase {
	return &assignmentUsecase{assignmentRepo: ar, submissionRepo: sr, courseRepo: cr}
}

func (uc *assignmentUsecase) Create(ctx context.Context, a *domain.Assignment) error {
	course, err := uc.courseRepo.GetBySlug(ctx, a.CourseSlug)
	if err != nil {
		return domain.ErrCourseNotFound
	}
	if a.Title == "" {
		return errors.New("title is required")
	}
	if a.MaxGrade <= 0 {
		return errors.New("max grade must be positive")
	}
	if a.LessonID != "" {
		if _, ok := course.LessonIDSet()[a.LessonID]; !ok {
			return errors.New("lesson not found in course")
		}
	}
	a.CreatedAt = time.Now()
	return uc.assignmentRepo.Create(ctx, a)
}

func (uc *assignmentUsecase) Update(ctx context.Context, a *domain.Assignment) error {
	existing, err := uc.assignmentRepo.GetByID(ctx, a.ID.Hex())
	if err != nil {
		return domain.ErrAssignmentNotFound
	}
	if a.Title != "" {
		existing.Title = a.Title
	}
	if a.Instructions != "" {
		existing.Instructions = a.Instructions
	}
	if a.MaxGrade > 0 {
		existing.MaxGrade = a.MaxGrade
	}
	if !a.DueAt.IsZero() {
		existing.DueAt = a.DueAt
	}
	return uc.assignmentRepo.Update(ctx, existing)
}

func (uc *assignmentUsecase) Delete(ctx context.Context, id string) error {
	return uc.assignmentRepo.Delete(ctx, id)
}

func (uc *assignmentUsecase) GetByCourse(ctx context.Context, slug string) ([]domain.Assignment, error) {
	return uc.assignmentRepo.GetByCourseSlug(ctx, slug)
}

func (uc *assignmentUsecase) GetSubmissions(ctx context.Context, assignmentID string) ([]domain.Submission, error) {
	if _, err := uc.assignmentRepo.GetByID(ctx, assignmentID); err != nil {
		return nil, domain.ErrAssignmentNotFound
	}
	return uc.submissionRepo.GetByAssignment(ctx, assignmentID)
}
