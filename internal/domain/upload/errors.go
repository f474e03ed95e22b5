package upload

import "errors"

var (
	ErrNoFile       = errors.New("no file uploaded")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrInvalidMime  = errors.New("file type is not allowed, use JPEG, PNG or GIF")
	ErrNotAnImage   = errors.New("file could not be decoded as an image")
	ErrFileNotFound = errors.New("file not found")
	ErrBadForm      = errors.New("malformed multipart form")
)
