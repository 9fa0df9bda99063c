package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatkeep/internal/service/account"
	"chatkeep/internal/session"
)

// maxUploadBytes caps the request body before any validation runs.
const maxUploadBytes = 1 << 20 // 1 MB

// imageTypes must match both the declared content type and the filename
// extension for an upload to be accepted.
var imageTypes = regexp.MustCompile(`jpe?g|png`)

func isAllowedImage(contentType, filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return imageTypes.MatchString(strings.ToLower(contentType)) && imageTypes.MatchString(ext)
}

func (h *Handler) upload(c *gin.Context) {
	snap, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// the form must carry the single "file" field and nothing else
	var files []*multipart.FileHeader
	for _, headers := range form.File {
		files = append(files, headers...)
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if len(files) > 1 || len(form.File["file"]) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unexpected file field"})
		return
	}
	file := form.File["file"][0]

	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file data"})
		return
	}
	if !isAllowedImage(file.Header.Get("Content-Type"), file.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file data"})
		return
	}
	defer src.Close()

	fileID, err := h.blobs.Save(c.Request.Context(), filepath.Base(file.Filename), src)
	if err != nil {
		h.log.Error("blob save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	// a failure past this point leaves the stored blob orphaned; there is
	// no reconciliation path and callers must tolerate it
	if err := h.accounts.AttachImage(c.Request.Context(), snap.UserID, fileID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("attach image failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"fileId": fileID.Hex()})
}
