package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub-backend/internal/repository"
)

// ========== FILE HANDLERS ==========

// UploadFile stores a multipart upload in GridFS. purpose selects what the
// file is for: receipt, submission or lesson material.
func (h *Handler) UploadFile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	if header.Size > repository.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 16MB limit"})
		return
	}

	purpose := c.PostForm("purpose")
	switch purpose {
	case repository.FileReceipt, repository.FileSubmission, repository.FileLesson:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purpose"})
		return
	}

	info, err := h.FileRepo.Upload(c.Request.Context(), file, header, repository.FileMetadata{
		OriginalName: header.Filename,
		UploadedBy:   userID,
		Purpose:      purpose,
		CourseSlug:   c.PostForm("course_slug"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file": info})
}

func (h *Handler) DownloadFile(c *gin.Context) {
	stream, info, err := h.FileRepo.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	defer stream.Close()

	c.Header("Content-Disposition", `attachment; filename="`+info.Metadata.OriginalName+`"`)
	c.Header("Content-Type", info.ContentType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, stream)
}
