package upload

// UploadResponse is the body of POST /api/upload
type UploadResponse struct {
	Success      bool   `json:"success"`
	ImageURL     string `json:"imageUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}
