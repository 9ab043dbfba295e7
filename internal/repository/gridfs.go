package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnhub-backend/pkg/utils"
)

// MaxFileSize caps receipt and submission uploads (16MB, one GridFS chunk set).
const MaxFileSize = 16 * 1024 * 1024

// File purposes stored in GridFS metadata.
const (
	FileReceipt    = "receipt"
	FileSubmission = "submission"
	FileLesson     = "lesson"
)

// FileInfo holds metadata of an uploaded file.
type FileInfo struct {
	ID          string       `json:"id" bson:"_id"`
	Filename    string       `json:"filename" bson:"filename"`
	ContentType string       `json:"content_type" bson:"contentType"`
	Size        int64        `json:"size" bson:"length"`
	UploadDate  time.Time    `json:"upload_date" bson:"uploadDate"`
	Metadata    FileMetadata `json:"metadata" bson:"metadata"`
}

type FileMetadata struct {
	OriginalName string `json:"original_name" bson:"original_name"`
	UploadedBy   uint   `json:"uploaded_by" bson:"uploaded_by"`
	Purpose      string `json:"purpose" bson:"purpose"` // receipt, submission, lesson
	CourseSlug   string `json:"course_slug,omitempty" bson:"course_slug,omitempty"`
}

// FileRepository stores bank-transfer receipts and assignment submissions.
type FileRepository interface {
	Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, metadata FileMetadata) (*FileInfo, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, *FileInfo, error)
	Delete(ctx context.Context, fileID string) error
	GetFileInfo(ctx context.Context, fileID string) (*FileInfo, error)
}

type fileRepo struct {
	db     *mongo.Database
	bucket *gridfs.Bucket
}

func NewFileRepository(db *mongo.Database) (FileRepository, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("uploads"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GridFS bucket: %w", err)
	}
	return &fileRepo{db: db, bucket: bucket}, nil
}

func (r *fileRepo) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, metadata FileMetadata) (*FileInfo, error) {
	if header.Size > MaxFileSize {
		return nil, fmt.Errorf("file too large, maximum is %dMB", MaxFileSize/(1024*1024))
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = detectContentType(header.Filename)
	}

	if !isAllowedFileType(contentType, header.Filename) {
		return nil, errors.New("file type not allowed, only PDF, images and documents are accepted")
	}

	ext := filepath.Ext(header.Filename)
	uniqueFilename := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), utils.RandString(8), ext)

	metadata.OriginalName = header.Filename

	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{
		"original_name": metadata.OriginalName,
		"uploaded_by":   metadata.UploadedBy,
		"purpose":       metadata.Purpose,
		"course_slug":   metadata.CourseSlug,
		"content_type":  contentType,
	})

	objectID, err := r.bucket.UploadFromStream(uniqueFilename, file, uploadOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	return &FileInfo{
		ID:          objectID.Hex(),
		Filename:    uniqueFilename,
		ContentType: contentType,
		Size:        header.Size,
		UploadDate:  time.Now(),
		Metadata:    metadata,
	}, nil
}

func (r *fileRepo) Download(ctx context.Context, fileID string) (io.ReadCloser, *FileInfo, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, errors.New("invalid file ID")
	}

	fileInfo, err := r.GetFileInfo(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	stream, err := r.bucket.OpenDownloadStream(objectID)
	if err != nil {
		return nil, nil, fmt.Errorf("file not found: %w", err)
	}

	return stream, fileInfo, nil
}

func (r *fileRepo) Delete(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return errors.New("invalid file ID")
	}

	if err := r.bucket.Delete(objectID); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (r *fileRepo) GetFileInfo(ctx context.Context, fileID string) (*FileInfo, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, errors.New("invalid file ID")
	}

	collection := r.db.Collection("uploads.files")

	var result struct {
		ID         primitive.ObjectID `bson:"_id"`
		Filename   string             `bson:"filename"`
		Length     int64              `bson:"length"`
		UploadDate time.Time          `bson:"uploadDate"`
		Metadata   bson.M             `bson:"metadata"`
	}

	err = collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.New("file not found")
		}
		return nil, err
	}

	metadata := FileMetadata{}
	contentType := ""
	if result.Metadata != nil {
		if v, ok := result.Metadata["original_name"].(string); ok {
			metadata.OriginalName = v
		}
		if v, ok := result.Metadata["uploaded_by"].(int64); ok {
			metadata.UploadedBy = uint(v)
		} else if v, ok := result.Metadata["uploaded_by"].(int32); ok {
			metadata.UploadedBy = uint(v)
		}
		if v, ok := result.Metadata["purpose"].(string); ok {
			metadata.Purpose = v
		}
		if v, ok := result.Metadata["course_slug"].(string); ok {
			metadata.CourseSlug = v
		}
		if v, ok := result.Metadata["content_type"].(string); ok {
			contentType = v
		}
	}
	if contentType == "" {
		contentType = detectContentType(result.Filename)
	}

	return &FileInfo{
		ID:          result.ID.Hex(),
		Filename:    result.Filename,
		ContentType: contentType,
		Size:        result.Length,
		UploadDate:  result.UploadDate,
		Metadata:    metadata,
	}, nil
}

// Helper functions

func detectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func isAllowedFileType(contentType, filename string) bool {
	allowedTypes := map[string]bool{
		"application/pdf":      true,
		"application/msword":   true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}

	if allowedTypes[contentType] {
		return true
	}

	ext := strings.ToLower(filepath.Ext(filename))
	allowedExts := map[string]bool{
		".pdf":  true,
		".doc":  true,
		".docx": true,
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
	}

	return allowedExts[ext]
}
