package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"slidedeck/internal/model"
)

// DocumentRepository persists documents keyed by their public document_id.
// Every driver failure is reported as a model.KindDatabaseConnection error.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&model.Document{}); err != nil {
		return model.DatabaseConnection("auto migrate documents failed", err)
	}
	return nil
}

// Upsert inserts doc or replaces the stored row with the same document_id.
// A replaced row keeps its first upload_timestamp.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *model.Document) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"original_filename",
			"file_path",
			"file_type",
			"total_slides",
			"slides",
			"metadata",
		}),
	}).Create(doc).Error
	if err != nil {
		return model.DatabaseConnection("upsert document failed", err)
	}
	return nil
}

// GetByDocumentID returns (nil, nil) when no document has that id.
func (r *DocumentRepository) GetByDocumentID(ctx context.Context, documentID string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, model.DatabaseConnection("get document failed", err)
	}
	return &doc, nil
}

// List returns the most recently uploaded documents first. A limit of zero
// or less returns every document.
func (r *DocumentRepository) List(ctx context.Context, limit int) ([]model.Document, error) {
	query := r.db.WithContext(ctx).
		Order("upload_timestamp DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var docs []model.Document
	err := query.Find(&docs).Error
	if err != nil {
		return nil, model.DatabaseConnection("list documents failed", err)
	}
	return docs, nil
}

// Delete removes the document and reports whether a row existed.
func (r *DocumentRepository) Delete(ctx context.Context, documentID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Document{})
	if res.Error != nil {
		return false, model.DatabaseConnection("delete document failed", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *DocumentRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return model.DatabaseConnection("get sql db failed", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return model.DatabaseConnection("ping database failed", err)
	}
	return nil
}
