// Package upload validates multipart photo uploads.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// scriptable image types can carry script when served from our origin
var scriptable = map[string]bool{
	"image/svg+xml": true,
}

// ImageLimits defines the validation limits for image uploads
type ImageLimits struct {
	MaxFileSize int64 // bytes
}

// Image is a validated upload ready to be stored
type Image struct {
	Header   *multipart.FileHeader
	MIMEType string
	Ext      string
}

// ValidationError is returned when the upload itself is unacceptable
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateImage checks the declared and detected content type and the size
func ValidateImage(fileHeader *multipart.FileHeader, limits ImageLimits) (*Image, error) {
	if fileHeader == nil {
		return nil, &ValidationError{Message: "Please upload a file"}
	}

	declared := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(declared, "image/") {
		return nil, &ValidationError{Message: "Please upload an image file"}
	}

	if limits.MaxFileSize > 0 && fileHeader.Size > limits.MaxFileSize {
		return nil, &ValidationError{
			Message: fmt.Sprintf("Please upload an image less than %d bytes", limits.MaxFileSize),
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(io.LimitReader(file, 3072))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Declared type and file name are client-controlled; the stored
	// extension always follows the sniffed type
	ext := detected.Extension()
	if !strings.HasPrefix(detected.String(), "image/") || ext == "" || scriptable[detected.String()] {
		return nil, &ValidationError{Message: "Please upload an image file"}
	}

	return &Image{
		Header:   fileHeader,
		MIMEType: detected.String(),
		Ext:      ext,
	}, nil
}

// PhotoName returns the stored name of a bootcamp photo
func PhotoName(id uint, ext string) string {
	return fmt.Sprintf("photo_%d%s", id, ext)
}
