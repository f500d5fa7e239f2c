package manuals

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledongthuc/pdf"

	"github.com/ecodanforum/backend/internal/models"
	"github.com/ecodanforum/backend/internal/storage"
)

var ErrNotPDF = errors.New("only PDF files are accepted")
var ErrNotFound = errors.New("manual not found")
var ErrBadManualType = errors.New("unknown manual type")

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type Service struct {
	db           *pgxpool.Pool
	store        storage.Storage
	bucket       string
	signedURLTTL time.Duration
}

func NewService(db *pgxpool.Pool, store storage.Storage, bucket string, signedURLTTL time.Duration) *Service {
	return &Service{db: db, store: store, bucket: bucket, signedURLTTL: signedURLTTL}
}

func (s *Service) List(ctx context.Context) ([]models.Manual, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, model_name, manual_type, storage_path, file_url, file_size_bytes, page_count, uploaded_by, created_at, updated_at
		 FROM manuals ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list manuals: %w", err)
	}
	defer rows.Close()

	var manuals []models.Manual
	for rows.Next() {
		var m models.Manual
		if err := rows.Scan(&m.ID, &m.Title, &m.ModelName, &m.ManualType, &m.StoragePath, &m.FileURL,
			&m.FileSizeBytes, &m.PageCount, &m.UploadedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan manual: %w", err)
		}
		manuals = append(manuals, m)
	}
	return manuals, rows.Err()
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Manual, error) {
	var m models.Manual
	err := s.db.QueryRow(ctx,
		`SELECT id, title, model_name, manual_type, storage_path, file_url, file_size_bytes, page_count, uploaded_by, created_at, updated_at
		 FROM manuals WHERE id = $1`, id,
	).Scan(&m.ID, &m.Title, &m.ModelName, &m.ManualType, &m.StoragePath, &m.FileURL,
		&m.FileSizeBytes, &m.PageCount, &m.UploadedBy, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get manual: %w", err)
	}
	return &m, nil
}

type UploadRequest struct {
	Title       string
	ModelName   *string
	ManualType  *string
	FileName    string
	ContentType string
	Data        io.Reader
	UploadedBy  uuid.UUID
}

// Upload stores a manual PDF and registers it. Non-PDF files are rejected by
// content type, falling back to the file extension when the type is generic.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.Manual, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.New("title is required")
	}
	if !validManualType(req.ManualType) {
		return nil, ErrBadManualType
	}
	if !isPDF(req.ContentType, req.FileName) {
		return nil, ErrNotPDF
	}

	data, err := io.ReadAll(req.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	path := fmt.Sprintf("%s/%d-%04d-%s",
		req.UploadedBy, time.Now().UnixMilli(), rand.Intn(10000), sanitizeFileName(req.FileName))

	if err := s.store.Upload(ctx, s.bucket, path, bytes.NewReader(data), "application/pdf"); err != nil {
		return nil, fmt.Errorf("upload manual: %w", err)
	}

	fileURL, err := s.store.CreateSignedURL(ctx, s.bucket, path, s.signedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign manual url: %w", err)
	}

	var pageCount *int
	if n, err := countPages(data); err != nil {
		slog.Warn("page count probe failed", "file", req.FileName, "error", err)
	} else {
		pageCount = &n
	}

	size := int64(len(data))
	m := models.Manual{
		Title:         strings.TrimSpace(req.Title),
		ModelName:     req.ModelName,
		ManualType:    req.ManualType,
		StoragePath:   path,
		FileURL:       fileURL,
		FileSizeBytes: &size,
		PageCount:     pageCount,
		UploadedBy:    &req.UploadedBy,
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO manuals (title, model_name, manual_type, storage_path, file_url, file_size_bytes, page_count, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		m.Title, m.ModelName, m.ManualType, m.StoragePath, m.FileURL, m.FileSizeBytes, m.PageCount, m.UploadedBy,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert manual: %w", err)
	}

	return &m, nil
}

// Delete removes the stored object, then the row. A failed object delete is
// logged but does not keep the row alive.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, s.bucket, m.StoragePath); err != nil {
		slog.Error("delete manual object failed", "manual_id", id, "path", m.StoragePath, "error", err)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM manuals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete manual: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// validManualType accepts an unset type; a set one must be in the fixed set
// the admin upload form offers.
func validManualType(t *string) bool {
	if t == nil {
		return true
	}
	for _, known := range models.ManualTypes {
		if *t == known {
			return true
		}
	}
	return false
}

func isPDF(contentType, fileName string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "application/pdf" {
		return true
	}
	if ct == "" || ct == "application/octet-stream" {
		return strings.HasSuffix(strings.ToLower(fileName), ".pdf")
	}
	return false
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafePathChars.ReplaceAllString(name, "_")
	if name == "" {
		name = "manual.pdf"
	}
	return name
}

func countPages(data []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
