package handlers

import (
	"net/http"

	"yumspot-api/storage"

	"github.com/gin-gonic/gin"
)

// receiveImage uploads the multipart "image" field into folder and returns its URL.
func (s *Services) receiveImage(c *gin.Context, folder string) (string, bool) {
	if s.Images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return "", false
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return "", false
	}
	contentType := fh.Header.Get("Content-Type")
	if err := storage.ValidateImage(contentType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable image file"})
		return "", false
	}
	defer f.Close()

	url, err := s.Images.Put(c.Request.Context(), folder, fh.Filename, contentType, f)
	if err != nil {
		serverError(c, err, "Failed to upload image")
		return "", false
	}
	return url, true
}
