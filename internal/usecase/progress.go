package usecase

import (
	"context"
	"math"

	"learnhub-backend/internal/domain"
)

// ComputeProgress derives the completion percent from the course's current
// structure. Lessons removed from the course since completion do not count;
// lessons added later lower the percentage. Not monotonic across course
// edits, and that is accepted behavior.
func ComputeProgress(e *domain.Enrollment, c *domain.Course) int {
	total := c.TotalLessons()
	if total == 0 {
		return 0
	}

	ids := c.LessonIDSet()
	completed := 0
	for _, id := range e.CompletedLessons {
		if _, ok := ids[id]; ok {
			completed++
		}
	}

	return int(math.Round(100 * float64(completed) / float64(total)))
}

// AverageGradePercent averages graded submissions as grade/maxGrade ratios.
// Returns nil when nothing is graded; nil is "no grade yet", not 0%.
func AverageGradePercent(submissions []domain.Submission) *int {
	sum := 0.0
	n := 0
	for _, s := range submissions {
		if s.Status != domain.SubmissionGraded || s.Grade == nil || s.MaxGrade <= 0 {
			continue
		}
		sum += *s.Grade / s.MaxGrade
		n++
	}
	if n == 0 {
		return nil
	}
	pct := int(math.Round(100 * sum / float64(n)))
	return &pct
}

type progressUsecase struct {
	enrollmentRepo domain.EnrollmentRepository
	courseRepo     domain.CourseRepository
	submissionRepo domain.SubmissionRepository
	profileRepo    domain.StudentProfileRepository
}

func NewProgressUsecase(
	er domain.EnrollmentRepository,
	cr domain.CourseRepository,
	sr domain.SubmissionRepository,
	pr domain.StudentProfileRepository,
) domain.ProgressUsecase {
	return &progressUsecase{
		enrollmentRepo: er,
		courseRepo:     cr,
		submissionRepo: sr,
		profileRepo:    pr,
	}
}

// MarkLessonComplete inserts lessonID into the completed set (re-marking is
// a no-op), recomputes progress against the current course tree, persists it
// and returns the new percentage.
func (uc *progressUsecase) MarkLessonComplete(ctx context.Context, studentID uint, slug, lessonID string) (int, error) {
	enrollment, err := uc.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, slug)
	if err != nil {
		return 0, domain.ErrNotEnrolled
	}

	course, err := uc.courseRepo.GetBySlug(ctx, slug)
	if err != nil {
		return 0, err
	}

	if !enrollment.HasCompleted(lessonID) {
		enrollment.CompletedLessons = append(enrollment.CompletedLessons, lessonID)
	}

	enrollment.Progress = ComputeProgress(enrollment, course)
	if err := uc.enrollmentRepo.Update(ctx, enrollment); err != nil {
		return 0, err
	}

	refreshProfileCache(ctx, uc.enrollmentRepo, uc.profileRepo, studentID)

	return enrollment.Progress, nil
}

// CourseStats aggregates enrollments for one course. Pending enrollments
// count toward TotalStudents but carry no meaningful progress, so only they
// are excluded from the average; failed rows stay in it.
func (uc *progressUsecase) CourseStats(ctx context.Context, slug string) (*domain.CourseStats, error) {
	enrollments, err := uc.enrollmentRepo.GetByCourseSlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	stats := &domain.CourseStats{TotalStudents: len(enrollments)}

	sum := 0
	counted := 0
	for _, e := range enrollments {
		if e.Status == domain.EnrollmentPending {
			continue
		}
		sum += e.Progress
		counted++
		if e.Status == domain.EnrollmentActive && e.Progress > 0 && e.Progress < 100 {
			stats.ActiveStudents++
		}
	}
	if counted > 0 {
		stats.AverageProgress = int(math.Round(float64(sum) / float64(counted)))
	}

	return stats, nil
}

func (uc *progressUsecase) AverageGrade(ctx context.Context, studentID uint, slug string) (*int, error) {
	submissions, err := uc.submissionRepo.GetByStudentAndCourse(ctx, studentID, slug)
	if err != nil {
		return nil, err
	}
	return AverageGradePercent(submissions), nil
}
