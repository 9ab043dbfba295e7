package usecase

import (
	"context"
	"errors"
	"time"

	"learnhub-backend/internal/domain"
)

type announcementUsecase struct {
	announcementRepo domain.AnnouncementRepository
	courseRepo       domain.CourseRepository
}

func NewAnnouncementUsecase(ar domain.AnnouncementRepository, cr domain.CourseRepository) domain.AnnouncementUsecase {
	return &announcementUsecase{announcementRepo: ar, courseRepo: cr}
}

func (uc *announcementUsecase) Create(ctx context.Context, a *domain.Announcement) error {
	if a.Title == "" || a.Body == "" {
		return errors.New("title and body are required")
	}
	// Empty slug publishes site-wide.
	if a.CourseSlug != "" {
		if _, err := uc.courseRepo.GetBySlug(ctx, a.CourseSlug); err != nil {
			return domain.ErrCourseNotFound
		}
	}
	a.PostedAt = time.Now()
	return uc.announcementRepo.Create(ctx, a)
}

func (uc *announcementUsecase) Update(ctx context.Context, a *domain.Announcement) error {
	if a.Title == "" || a.Body == "" {
		return errors.New("title and body are required")
	}
	return uc.announcementRepo.Update(ctx, a)
}

func (uc *announcementUsecase) Delete(ctx context.Context, id string) error {
	return uc.announcementRepo.Delete(ctx, id)
}

func (uc *announcementUsecase) GetAll(ctx context.Context) ([]domain.Announcement, error) {
	return uc.announcementRepo.GetAll(ctx)
}
