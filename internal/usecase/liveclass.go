package usecase

import (
	"context"
	"errors"
	"time"

	"learnhub-backend/internal/domain"
)

type liveClassUsecase struct {
	liveClassRepo domain.LiveClassRepository
	courseRepo    domain.CourseRepository
}

func NewLiveClassUsecase(lcr domain.LiveClassRepository, cr domain.CourseRepository) domain.LiveClassUsecase {
	return &liveClassUsecase{liveClassRepo: lcr, courseRepo: cr}
}

func (uc *liveClassUsecase) CreateClass(ctx context.Context, class *domain.LiveClass) error {
	if _, err := uc.courseRepo.GetBySlug(ctx, class.CourseSlug); err != nil {
		return domain.ErrCourseNotFound
	}
	if class.Title == "" || class.MeetingURL == "" {
		return errors.New("title and meeting url are required")
	}
	if !class.EndTime.IsZero() && class.EndTime.Before(class.StartTime) {
		return errors.New("end time before start time")
	}
	class.Status = domain.LiveClassScheduled
	class.CreatedAt = time.Now()
	return uc.liveClassRepo.Create(ctx, class)
}

func (uc *liveClassUsecase) UpdateClass(ctx context.Context, class *domain.LiveClass) error {
	existing, err := uc.liveClassRepo.GetByID(ctx, class.ID.Hex())
	if err != nil {
		return err
	}
	if class.Title != "" {
		existing.Title = class.Title
	}
	if class.Description != "" {
		existing.Description = class.Description
	}
	if class.MeetingURL != "" {
		existing.MeetingURL = class.MeetingURL
	}
	if !class.StartTime.IsZero() {
		existing.StartTime = class.StartTime
	}
	if !class.EndTime.IsZero() {
		existing.EndTime = class.EndTime
	}
	return uc.liveClassRepo.Update(ctx, existing)
}

func (uc *liveClassUsecase) UpdateStatus(ctx context.Context, id string, status domain.LiveClassStatus) error {
	class, err := uc.liveClassRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch status {
	case domain.LiveClassScheduled, domain.LiveClassLive, domain.LiveClassEnded:
	default:
		return errors.New("invalid class status")
	}
	class.Status = status
	return uc.liveClassRepo.Update(ctx, class)
}

func (uc *liveClassUsecase) DeleteClass(ctx context.Context, id string) error {
	return uc.liveClassRepo.Delete(ctx, id)
}

func (uc *liveClassUsecase) GetByCourse(ctx context.Context, slug string) ([]domain.LiveClass, error) {
	return uc.liveClassRepo.GetByCourseSlug(ctx, slug)
}

func (uc *liveClassUsecase) GetUpcoming(ctx context.Context) ([]domain.LiveClass, error) {
	return uc.liveClassRepo.GetUpcoming(ctx)
}
