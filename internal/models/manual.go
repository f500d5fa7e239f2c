package models

import (
	"time"

	"github.com/google/uuid"
)

type Manual struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	ModelName     *string    `json:"model_name" db:"model_name"`
	ManualType    *string    `json:"manual_type" db:"manual_type"`
	StoragePath   string     `json:"storage_path" db:"storage_path"`
	FileURL       string     `json:"file_url" db:"file_url"`
	FileSizeBytes *int64     `json:"file_size_bytes" db:"file_size_bytes"`
	PageCount     *int       `json:"page_count" db:"page_count"`
	UploadedBy    *uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// ManualTypes is the fixed set offered by the admin upload flow.
var ManualTypes = []string{
	"Install Manual",
	"Quick Setup Guide",
	"Service Manual",
	"Submittal",
}
