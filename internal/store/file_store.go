package store

import (
	"context"

	"gorm.io/gorm"

	"filehost/internal/domain"
)

type FileStore struct{ db *gorm.DB }

func (s *Store) Files() *FileStore { return &FileStore{db: s.DB} }

func (f *FileStore) Create(ctx context.Context, file *domain.File) error {
	return storeErr(f.db.WithContext(ctx).Create(file).Error, nil, nil)
}

// GetByToken resolves a file by its opaque public token, with the author
// record joined in.
func (f *FileStore) GetByToken(ctx context.Context, token string) (*domain.File, error) {
	var file domain.File
	err := f.db.WithContext(ctx).Preload("Author").First(&file, "token = ?", token).Error
	if err != nil {
		return nil, storeErr(err, domain.ErrFileNotFound, nil)
	}
	return &file, nil
}

func (f *FileStore) GetByID(ctx context.Context, id int64) (*domain.File, error) {
	var file domain.File
	err := f.db.WithContext(ctx).Preload("Author").First(&file, "id = ?", id).Error
	if err != nil {
		return nil, storeErr(err, domain.ErrFileNotFound, nil)
	}
	return &file, nil
}

// GetByAuthor lists a user's uploads, newest first, without the content
// bytes.
func (f *FileStore) GetByAuthor(ctx context.Context, authorID int64) ([]domain.File, error) {
	var files []domain.File
	err := f.db.WithContext(ctx).
		Omit("content").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, storeErr(err, nil, nil)
	}
	return files, nil
}
