package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnhub-backend/internal/domain"
)

// ========== COURSE REPOSITORY ==========

type courseRepo struct {
	db *mongo.Database
}

func NewCourseRepository(db *mongo.Database) domain.CourseRepository {
	return &courseRepo{db}
}

func (r *courseRepo) col() *mongo.Collection { return r.db.Collection("courses") }

func (r *courseRepo) Create(ctx context.Context, course *domain.Course) error {
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	res, err := r.col().InsertOne(ctx, course)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		course.ID = oid
	}
	return nil
}

func (r *courseRepo) GetBySlug(ctx context.Context, slug string) (*domain.Course, error) {
	var course domain.Course
	err := r.col().FindOne(ctx, bson.M{"slug": slug}).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetPublished(ctx context.Context) ([]domain.Course, error) {
	return r.find(ctx, bson.M{"published": true})
}

func (r *courseRepo) GetAll(ctx context.Context) ([]domain.Course, error) {
	return r.find(ctx, bson.M{})
}

func (r *courseRepo) find(ctx context.Context, filter bson.M) ([]domain.Course, error) {
	cursor, err := r.col().Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var courses []domain.Course
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Replace swaps the whole document: the editor saves the full course tree
// atomically, last writer wins.
func (r *courseRepo) Replace(ctx context.Context, course *domain.Course) error {
	course.UpdatedAt = time.Now()
	res, err := r.col().ReplaceOne(ctx, bson.M{"slug": course.Slug}, course)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, slug string) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// IncrementPromoUsage bumps used_count for one code. Callers guard the
// cap and the once-per-confirmation contract before invoking this.
func (r *courseRepo) IncrementPromoUsage(ctx context.Context, slug, code string) error {
	filter := bson.M{"slug": slug, "promo_codes.code": code}
	update := bson.M{"$inc": bson.M{"promo_codes.$.used_count": 1}}
	_, err := r.col().UpdateOne(ctx, filter, update)
	return err
}

// ========== ENROLLMENT REPOSITORY ==========

type enrollmentRepo struct {
	db *mongo.Database
}

func NewEnrollmentRepository(db *mongo.Database) domain.EnrollmentRepository {
	return &enrollmentRepo{db}
}

func (r *enrollmentRepo) col() *mongo.Collection { return r.db.Collection("enrollments") }

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	if enrollment.CompletedLessons == nil {
		enrollment.CompletedLessons = []string{}
	}
	enrollment.CreatedAt = time.Now()
	res, err := r.col().InsertOne(ctx, enrollment)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		enrollment.ID = oid
	}
	return nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrEnrollmentNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *enrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID uint, slug string) (*domain.Enrollment, error) {
	return r.findOne(ctx, bson.M{"student_id": studentID, "course_slug": slug})
}

func (r *enrollmentRepo) GetByTransactionRef(ctx context.Context, ref string) (*domain.Enrollment, error) {
	return r.findOne(ctx, bson.M{"transaction_ref": ref})
}

func (r *enrollmentRepo) findOne(ctx context.Context, filter bson.M) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.col().FindOne(ctx, filter).Decode(&enrollment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) GetByStudentID(ctx context.Context, studentID uint) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"student_id": studentID})
}

func (r *enrollmentRepo) GetByCourseSlug(ctx context.Context, slug string) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"course_slug": slug})
}

func (r *enrollmentRepo) GetPendingBankTransfers(ctx context.Context, slug string) ([]domain.Enrollment, error) {
	filter := bson.M{
		"status":         domain.EnrollmentPending,
		"payment_method": domain.MethodBankTransfer,
	}
	if slug != "" {
		filter["course_slug"] = slug
	}
	return r.find(ctx, filter)
}

func (r *enrollmentRepo) find(ctx context.Context, filter bson.M) ([]domain.Enrollment, error) {
	cursor, err := r.col().Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []domain.Enrollment
	if err := cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepo) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	res, err := r.col().ReplaceOne(ctx, bson.M{"_id": enrollment.ID}, enrollment)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrEnrollmentNotFound
	}
	return nil
}

func (r *enrollmentRepo) Delete(ctx context.Context, studentID uint, slug string) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"student_id": studentID, "course_slug": slug})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrEnrollmentNotFound
	}
	return nil
}

func (r *enrollmentRepo) Count(ctx context.Context) (int64, error) {
	return r.col().CountDocuments(ctx, bson.M{})
}

func (r *enrollmentRepo) CountByStatus(ctx context.Context, status domain.EnrollmentStatus) (int64, error) {
	return r.col().CountDocuments(ctx, bson.M{"status": status})
}

// ========== SUBMISSION REPOSITORY ==========

type submissionRepo struct {
	db *mongo.Database
}

func NewSubmissionRepository(db *mongo.Database) domain.SubmissionRepository {
	return &submissionRepo{db}
}

func (r *submissionRepo) col() *mongo.Collection { return r.db.Collection("submissions") }

func (r *submissionRepo) Create(ctx context.Context, submission *domain.Submission) error {
	res, err := r.col().InsertOne(ctx, submission)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		submission.ID = oid
	}
	return nil
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrSubmissionNotFound
	}
	var submission domain.Submission
	err = r.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&submission)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepo) GetByStudentAndCourse(ctx context.Context, studentID uint, slug string) ([]domain.Submission, error) {
	return r.find(ctx, bson.M{"student_id": studentID, "course_slug": slug})
}

func (r *submissionRepo) GetByAssignment(ctx context.Context, assignmentID string) ([]domain.Submission, error) {
	return r.find(ctx, bson.M{"assignment_id": assignmentID})
}

func (r *submissionRepo) find(ctx context.Context, filter bson.M) ([]domain.Submission, error) {
	cursor, err := r.col().Find(ctx, filter, options.Find().SetSort(bson.M{"submitted_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var submissions []domain.Submission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepo) Update(ctx context.Context, submission *domain.Submission) error {
	res, err := r.col().ReplaceOne(ctx, bson.M{"_id": submission.ID}, submission)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

// ========== ASSIGNMENT REPOSITORY ==========

type assignmentRepo struct {
	db *mongo.Database
}

func NewAssignmentRepository(db *mongo.Database) domain.AssignmentRepository {
	return &assignmentRepo{db}
}

func (r *assignmentRepo) col() *mongo.Collection { return r.db.Collection("assignments") }

func (r *assignmentRepo) Create(ctx context.Context, assignment *domain.Assignment) error {
	assignment.CreatedAt = time.Now()
	res, err := r.col().InsertOne(ctx, assignment)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		assignment.ID = oid
	}
	return nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAssignmentNotFound
	}
	var assignment domain.Assignment
	err = r.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&assignment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) GetByCourseSlug(ctx context.Context, slug string) ([]domain.Assignment, error) {
	cursor, err := r.col().Find(ctx, bson.M{"course_slug": slug}, options.Find().SetSort(bson.M{"due_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.Assignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepo) Update(ctx context.Context, assignment *domain.Assignment) error {
	res, err := r.col().ReplaceOne(ctx, bson.M{"_id": assignment.ID}, assignment)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAssignmentNotFound
	}
	_, err = r.col().DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// ========== ANNOUNCEMENT REPOSITORY ==========

type announcementRepo struct {
	db *mongo.Database
}

func NewAnnouncementRepository(db *mongo.Database) domain.AnnouncementRepository {
	return &announcementRepo{db}
}

func (r *announcementRepo) col() *mongo.Collection { return r.db.Collection("announcements") }

func (r *announcementRepo) Create(ctx context.Context, announcement *domain.Announcement) error {
	announcement.PostedAt = time.Now()
	res, err := r.col().InsertOne(ctx, announcement)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		announcement.ID = oid
	}
	return nil
}

func (r *announcementRepo) GetForCourse(ctx context.Context, slug string) ([]domain.Announcement, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"course_slug": slug},
		bson.M{"course_slug": bson.M{"$in": bson.A{"", nil}}},
	}}
	return r.find(ctx, filter)
}

func (r *announcementRepo) GetAll(ctx context.Context) ([]domain.Announcement, error) {
	return r.find(ctx, bson.M{})
}

func (r *announcementRepo) find(ctx context.Context, filter bson.M) ([]domain.Announcement, error) {
	cursor, err := r.col().Find(ctx, filter, options.Find().SetSort(bson.M{"posted_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var announcements []domain.Announcement
	if err := cursor.All(ctx, &announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}

// Update edits title and body in place; posted_at and scope are immutable.
func (r *announcementRepo) Update(ctx context.Context, announcement *domain.Announcement) error {
	res, err := r.col().UpdateOne(ctx, bson.M{"_id": announcement.ID}, bson.M{
		"$set": bson.M{"title": announcement.Title, "body": announcement.Body},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("announcement not found")
	}
	return nil
}

func (r *announcementRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("announcement not found")
	}
	_, err = r.col().DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// ========== LIVE CLASS REPOSITORY ==========

type liveClassRepo struct {
	db *mongo.Database
}

func NewLiveClassRepository(db *mongo.Database) domain.LiveClassRepository {
	return &liveClassRepo{db}
}

func (r *liveClassRepo) col() *mongo.Collection { return r.db.Collection("live_classes") }

func (r *liveClassRepo) Create(ctx context.Context, class *domain.LiveClass) error {
	class.CreatedAt = time.Now()
	res, err := r.col().InsertOne(ctx, class)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		class.ID = oid
	}
	return nil
}

func (r *liveClassRepo) GetByID(ctx context.Context, id string) (*domain.LiveClass, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("live class not found")
	}
	var class domain.LiveClass
	err = r.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&class)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New("live class not found")
	}
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *liveClassRepo) GetByCourseSlug(ctx context.Context, slug string) ([]domain.LiveClass, error) {
	return r.find(ctx, bson.M{"course_slug": slug})
}

func (r *liveClassRepo) GetUpcoming(ctx context.Context) ([]domain.LiveClass, error) {
	return r.find(ctx, bson.M{
		"start_time": bson.M{"$gte": time.Now()},
		"status":     bson.M{"$ne": domain.LiveClassEnded},
	})
}

func (r *liveClassRepo) find(ctx context.Context, filter bson.M) ([]domain.LiveClass, error) {
	cursor, err := r.col().Find(ctx, filter, options.Find().SetSort(bson.M{"start_time": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var classes []domain.LiveClass
	if err := cursor.All(ctx, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *liveClassRepo) Update(ctx context.Context, class *domain.LiveClass) error {
	_, err := r.col().ReplaceOne(ctx, bson.M{"_id": class.ID}, class)
	return err
}

func (r *liveClassRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("live class not found")
	}
	_, err = r.col().DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// ========== NOTE REPOSITORY ==========

type noteRepo struct {
	db *mongo.Database
}

func NewNoteRepository(db *mongo.Database) domain.NoteRepository {
	return &noteRepo{db}
}

func (r *noteRepo) col() *mongo.Collection { return r.db.Collection("notes") }

func (r *noteRepo) Upsert(ctx context.Context, note *domain.Note) error {
	note.UpdatedAt = time.Now()
	filter := bson.M{
		"student_id":  note.StudentID,
		"course_slug": note.CourseSlug,
		"lesson_id":   note.LessonID,
	}
	update := bson.M{"$set": bson.M{
		"body":       note.Body,
		"updated_at": note.UpdatedAt,
	}}
	_, err := r.col().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *noteRepo) GetByStudentAndCourse(ctx context.Context, studentID uint, slug string) ([]domain.Note, error) {
	cursor, err := r.col().Find(ctx, bson.M{"student_id": studentID, "course_slug": slug})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notes []domain.Note
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// ========== STUDENT PROFILE REPOSITORY ==========

type studentProfileRepo struct {
	db *mongo.Database
}

func NewStudentProfileRepository(db *mongo.Database) domain.StudentProfileRepository {
	return &studentProfileRepo{db}
}

func (r *studentProfileRepo) col() *mongo.Collection { return r.db.Collection("student_profiles") }

func (r *studentProfileRepo) GetByUserID(ctx context.Context, userID uint) (*domain.StudentProfile, error) {
	var profile domain.StudentProfile
	err := r.col().FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.StudentProfile{UserID: userID, EnrolledCourses: []domain.EnrolledCourseSummary{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *studentProfileRepo) ReplaceEnrolledCourses(ctx context.Context, userID uint, courses []domain.EnrolledCourseSummary) error {
	if courses == nil {
		courses = []domain.EnrolledCourseSummary{}
	}
	update := bson.M{"$set": bson.M{
		"enrolled_courses": courses,
		"updated_at":       time.Now(),
	}}
	_, err := r.col().UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	return err
}
