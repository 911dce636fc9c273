package models

import "time"

// Upload stores metadata about a stored asset, typically a question
// illustration referenced by its URL.
type Upload struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	URL        string    `gorm:"size:512;not null" json:"url"`
	MimeType   string    `gorm:"size:128" json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	Checksum   string    `gorm:"size:64;index" json:"checksum"`
	UploadedBy *uint     `gorm:"index" json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
