package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"learnhub-backend/internal/domain"
	"learnhub-backend/pkg/logger"
)

type classroomUsecase struct {
	enrollmentRepo   domain.EnrollmentRepository
	courseRepo       domain.CourseRepository
	submissionRepo   domain.SubmissionRepository
	assignmentRepo   domain.AssignmentRepository
	announcementRepo domain.AnnouncementRepository
	liveClassRepo    domain.LiveClassRepository
	noteRepo         domain.NoteRepository
	userRepo         domain.UserRepository
	paymentRepo      domain.PaymentRepository
	progress         domain.ProgressUsecase
	enrollment       domain.EnrollmentUsecase
}

func NewClassroomUsecase(
	er domain.EnrollmentRepository,
	cr domain.CourseRepository,
	sr domain.SubmissionRepository,
	ar domain.AssignmentRepository,
	anr domain.AnnouncementRepository,
	lcr domain.LiveClassRepository,
	nr domain.NoteRepository,
	ur domain.UserRepository,
	pr domain.PaymentRepository,
	progress domain.ProgressUsecase,
	enrollment domain.EnrollmentUsecase,
) domain.ClassroomUsecase {
	return &classroomUsecase{
		enrollmentRepo:   er,
		courseRepo:       cr,
		submissionRepo:   sr,
		assignmentRepo:   ar,
		announcementRepo: anr,
		liveClassRepo:    lcr,
		noteRepo:         nr,
		userRepo:         ur,
		paymentRepo:      pr,
		progress:         progress,
		enrollment:       enrollment,
	}
}

// ========== STUDENT CLASSROOM ==========

// GetStudentClassroom assembles everything the classroom page needs in one
// call. Requires an active enrollment; progress is recomputed fresh against
// the current course tree.
func (uc *classroomUsecase) GetStudentClassroom(ctx context.Context, studentID uint, slug string) (*domain.ClassroomData, error) {
	enrollment, err := uc.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, slug)
	if err != nil || enrollment.Status != domain.EnrollmentActive {
		return nil, domain.ErrNotEnrolled
	}

	course, err := uc.courseRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, domain.ErrCourseNotFound
	}

	enrollment.Progress = ComputeProgress(enrollment, course)

	data := &domain.ClassroomData{
		Course:     course,
		Enrollment: enrollment,
	}

	if stats, err := uc.progress.CourseStats(ctx, slug); err == nil {
		data.Stats = stats
	}
	if assignments, err := uc.assignmentRepo.GetByCourseSlug(ctx, slug); err == nil {
		data.Assignments = assignments
	}
	if submissions, err := uc.submissionRepo.GetByStudentAndCourse(ctx, studentID, slug); err == nil {
		data.Submissions = submissions
		data.AverageGrade = AverageGradePercent(submissions)
	}
	if notes, err := uc.noteRepo.GetByStudentAndCourse(ctx, studentID, slug); err == nil {
		data.Notes = notes
	}
	if announcements, err := uc.announcementRepo.GetForCourse(ctx, slug); err == nil {
		data.Announcements = announcements
	}
	if classes, err := uc.liveClassRepo.GetByCourseSlug(ctx, slug); err == nil {
		data.LiveClasses = classes
	}

	return data, nil
}

// ========== ADMIN CLASSROOM ==========

func (uc *classroomUsecase) GetAdminClassroom(ctx context.Context, slug string) (*domain.AdminClassroomData, error) {
	course, err := uc.courseRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, domain.ErrCourseNotFound
	}

	enrollments, err := uc.enrollmentRepo.GetByCourseSlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	users, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	students := make([]domain.ClassroomStudent, 0, len(enrollments))
	for _, e := range enrollments {
		row := domain.ClassroomStudent{
			StudentID:  e.StudentID,
			Status:     e.Status,
			Method:     e.PaymentMethod,
			Progress:   ComputeProgress(&e, course),
			EnrolledAt: e.CreatedAt,
		}
		if u, ok := byID[e.StudentID]; ok {
			row.Name = u.Name
			row.Email = u.Email
		}
		students = append(students, row)
	}

	data := &domain.AdminClassroomData{
		Course:   course,
		Students: students,
	}
	if stats, err := uc.progress.CourseStats(ctx, slug); err == nil {
		data.Stats = stats
	}
	if pending, err := uc.enrollmentRepo.GetPendingBankTransfers(ctx, slug); err == nil {
		data.PendingBankTransfers = pending
	}

	return data, nil
}

// ========== DASHBOARDS ==========

func (uc *classroomUsecase) GetStudentDashboard(ctx context.Context, studentID uint) (*domain.StudentDashboardData, error) {
	views, err := uc.enrollment.GetStudentEnrollments(ctx, studentID)
	if err != nil {
		return nil, err
	}

	data := &domain.StudentDashboardData{
		TotalEnrollments: len(views),
		EnrolledCourses:  views,
	}
	for _, v := range views {
		switch {
		case v.Progress >= 100:
			data.CompletedCourses++
		case v.Progress > 0:
			data.InProgressCourses++
		}
	}

	if upcoming, err := uc.liveClassRepo.GetUpcoming(ctx); err == nil {
		data.UpcomingClasses = filterClassesForStudent(upcoming, views)
	}
	if announcements, err := uc.announcementRepo.GetForCourse(ctx, ""); err == nil {
		data.Announcements = announcements
	}

	return data, nil
}

// filterClassesForStudent keeps upcoming classes for courses the student is
// enrolled in.
func filterClassesForStudent(classes []domain.LiveClass, views []domain.EnrolledCourseView) []domain.LiveClass {
	enrolled := make(map[string]struct{}, len(views))
	for _, v := range views {
		if v.Status == domain.EnrollmentActive {
			enrolled[v.CourseSlug] = struct{}{}
		}
	}
	out := []domain.LiveClass{}
	for _, c := range classes {
		if _, ok := enrolled[c.CourseSlug]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (uc *classroomUsecase) GetAdminDashboard(ctx context.Context) (*domain.AdminDashboardData, error) {
	data := &domain.AdminDashboardData{}

	if n, err := uc.userRepo.CountByRole(ctx, domain.RoleStudent); err == nil {
		data.TotalStudents = int(n)
	}
	if courses, err := uc.courseRepo.GetAll(ctx); err == nil {
		data.TotalCourses = len(courses)
		for _, c := range courses {
			if c.Published {
				data.PublishedCourses++
			}
		}
	}
	if n, err := uc.enrollmentRepo.Count(ctx); err == nil {
		data.TotalEnrollments = int(n)
	}
	if n, err := uc.enrollmentRepo.CountByStatus(ctx, domain.EnrollmentActive); err == nil {
		data.ActiveEnrollments = int(n)
	}
	if pending, err := uc.enrollmentRepo.GetPendingBankTransfers(ctx, ""); err == nil {
		data.PendingBankTransfers = len(pending)
	}
	if revenue, err := uc.paymentRepo.SumCompleted(ctx); err == nil {
		data.TotalRevenue = revenue
	} else {
		logger.Log.Warn("revenue sum failed", zap.Error(err))
	}

	return data, nil
}

// ========== SUBMISSIONS & GRADING ==========

// SubmitAssignment records an upload against an assignment. A submission
// past the due date is marked late but still accepted.
func (uc *classroomUsecase) SubmitAssignment(ctx context.Context, studentID uint, assignmentID, fileID string) (*domain.Submission, error) {
	assignment, err := uc.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, domain.ErrAssignmentNotFound
	}

	enrollment, err := uc.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, assignment.CourseSlug)
	if err != nil || enrollment.Status != domain.EnrollmentActive {
		return nil, domain.ErrNotEnrolled
	}

	now := time.Now()
	status := domain.SubmissionSubmitted
	if !assignment.DueAt.IsZero() && now.After(assignment.DueAt) {
		status = domain.SubmissionLate
	}

	submission := &domain.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		CourseSlug:   assignment.CourseSlug,
		LessonID:     assignment.LessonID,
		FileID:       fileID,
		Status:       status,
		MaxGrade:     assignment.MaxGrade,
		SubmittedAt:  now,
	}
	if err := uc.submissionRepo.Create(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// GradeSubmission sets the grade, replacing any previous one. Regrading is
// allowed and overwrites.
func (uc *classroomUsecase) GradeSubmission(ctx context.Context, submissionID string, grade float64, feedback string) (*domain.Submission, error) {
	submission, err := uc.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, domain.ErrSubmissionNotFound
	}

	if grade < 0 || grade > submission.MaxGrade {
		return nil, domain.ErrGradeOutOfRange
	}

	now := time.Now()
	submission.Grade = &grade
	submission.Feedback = feedback
	submission.Status = domain.SubmissionGraded
	submission.GradedAt = &now

	if err := uc.submissionRepo.Update(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// UpsertNote saves a per-lesson note, keyed (student, course, lesson).
func (uc *classroomUsecase) UpsertNote(ctx context.Context, note *domain.Note) error {
	enrollment, err := uc.enrollmentRepo.GetByStudentAndCourse(ctx, note.StudentID, note.CourseSlug)
	if err != nil || enrollment.Status != domain.EnrollmentActive {
		return domain.ErrNotEnrolled
	}
	note.UpdatedAt = time.Now()
	return uc.noteRepo.Upsert(ctx, note)
}
