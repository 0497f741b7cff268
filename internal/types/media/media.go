package media

import "time"

// UploadURLRequest asks for a presigned PUT URL for one object.
type UploadURLRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// UploadInfo is returned with a presigned upload URL. ObjectKey is what a
// journal entry later references as media_key.
type UploadInfo struct {
	ObjectKey   string `json:"object_key"`
	UploadURL   string `json:"upload_url"`
	ExpiresAt   int64  `json:"expires_at"`
	MaxFileSize int64  `json:"max_file_size"`
	ContentType string `json:"content_type"`
}

type DownloadInfo struct {
	ObjectKey   string `json:"object_key"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Object describes a stored media file of the caller.
type Object struct {
	ObjectKey   string    `json:"object_key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
