package service

import (
	"context"

	"github.com/google/uuid"

	"filehost/internal/domain"
)

// FileDirectory is the slice of the persistent store the file operations
// need.
type FileDirectory interface {
	Create(ctx context.Context, file *domain.File) error
	GetByToken(ctx context.Context, token string) (*domain.File, error)
	GetByAuthor(ctx context.Context, authorID int64) ([]domain.File, error)
}

// AuthorDirectory is the slice of the user directory the file operations
// need.
type AuthorDirectory interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type FileService struct {
	files   FileDirectory
	authors AuthorDirectory
}

func NewFileService(files FileDirectory, authors AuthorDirectory) *FileService {
	return &FileService{files: files, authors: authors}
}

// Upload stores one file for authorID and mints its opaque token. The author
// is re-checked against the directory: the account may have been deleted
// between the gate's lookup and this call.
func (s *FileService) Upload(ctx context.Context, authorID int64, name, description, contentType string, public bool, content []byte) (*domain.File, error) {
	if name == "" || len(content) == 0 {
		return nil, domain.ErrMissingField
	}
	ok, err := s.authors.Exists(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	file := &domain.File{
		Token:       uuid.NewString(),
		Name:        name,
		Description: description,
		AuthorID:    authorID,
		Public:      public,
		ContentType: contentType,
		Content:     content,
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// GetByToken resolves a file for a viewer. Non-public files are only visible
// to their author; everyone else sees not-found rather than forbidden, so
// the token namespace leaks nothing about private uploads.
func (s *FileService) GetByToken(ctx context.Context, token string, viewer *domain.User) (*domain.File, error) {
	if token == "" {
		return nil, domain.ErrFileNotFound
	}
	file, err := s.files.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !file.Public && (viewer == nil || viewer.ID != file.AuthorID) {
		return nil, domain.ErrFileNotFound
	}
	return file, nil
}

// ListByAuthor returns the author's uploads for the upload page.
func (s *FileService) ListByAuthor(ctx context.Context, authorID int64) ([]domain.File, error) {
	return s.files.GetByAuthor(ctx, authorID)
}
