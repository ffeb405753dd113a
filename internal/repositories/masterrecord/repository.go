package masterrecord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "id, canonical_name, canonical_brand, canonical_category, barcode, attributes, created_at, updated_at, deleted_at"

// Repository handles master record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new master record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new master record
func (r *Repository) Create(ctx context.Context, req models.CreateMasterRecordRequest) (*models.MasterRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	record := models.MasterRecord{
		ID:                uuid.New().String(),
		CanonicalName:     req.CanonicalName,
		CanonicalBrand:    req.CanonicalBrand,
		CanonicalCategory: req.CanonicalCategory,
		Barcode:           req.Barcode,
		Attributes:        req.Attributes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("master_records")
	sb.Cols("id", "canonical_name", "canonical_brand", "canonical_category", "barcode", "attributes", "created_at", "updated_at")
	sb.Values(record.ID, record.CanonicalName, record.CanonicalBrand, record.CanonicalCategory, record.Barcode, record.Attributes, record.CreatedAt, record.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"master_id": record.ID}).Error("Failed to create master record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create master record")
	}

	return &record, nil
}

// Get retrieves a master record by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.MasterRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("master_records")
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var record models.MasterRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("master record %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get master record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get master record")
	}

	return &record, nil
}

// GetByBarcode retrieves a master record by exact barcode. Returns nil
// without error when no record carries the barcode.
func (r *Repository) GetByBarcode(ctx context.Context, barcode string) (*models.MasterRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.GetByBarcode")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("master_records")
	sb.Where(
		sb.Equal("barcode", barcode),
		sb.IsNull("deleted_at"),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var record models.MasterRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get master record by barcode")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get master record")
	}

	return &record, nil
}

// List retrieves master records with pagination and optional name search
func (r *Repository) List(ctx context.Context, page, pageSize int, search string) (*models.MasterRecordListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("master_records")
	where := []string{sb.IsNull("deleted_at")}
	if search != "" {
		where = append(where, sb.ILike("canonical_name", "%"+search+"%"))
	}
	sb.Where(where...)
	sb.OrderBy("canonical_name ASC", "id ASC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var records []models.MasterRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list master records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list master records")
	}

	cb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	cb.Select("COUNT(*)")
	cb.From("master_records")
	cwhere := []string{cb.IsNull("deleted_at")}
	if search != "" {
		cwhere = append(cwhere, cb.ILike("canonical_name", "%"+search+"%"))
	}
	cb.Where(cwhere...)

	query, args = cb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count master records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count master records")
	}

	return &models.MasterRecordListResponse{
		Items:      records,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// ListAll retrieves every active master record. This is the candidate pool
// for resolution; callers cache the snapshot rather than re-reading per
// record.
func (r *Repository) ListAll(ctx context.Context) ([]models.MasterRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("master_records")
	sb.Where(sb.IsNull("deleted_at"))
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var records []models.MasterRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load master record pool")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load master records")
	}

	return records, nil
}

// Update updates a master record's descriptive fields. Unset fields in the
// request are left unchanged.
func (r *Repository) Update(ctx context.Context, id string, req models.UpdateMasterRecordRequest) (*models.MasterRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("master_records")

	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if req.CanonicalName != nil {
		assignments = append(assignments, sb.Assign("canonical_name", *req.CanonicalName))
	}
	if req.CanonicalBrand != nil {
		assignments = append(assignments, sb.Assign("canonical_brand", *req.CanonicalBrand))
	}
	if req.CanonicalCategory != nil {
		assignments = append(assignments, sb.Assign("canonical_category", *req.CanonicalCategory))
	}
	if req.Barcode != nil {
		assignments = append(assignments, sb.Assign("barcode", *req.Barcode))
	}
	if req.Attributes != nil {
		assignments = append(assignments, sb.Assign("attributes", models.AttributeMap(req.Attributes)))
	}
	sb.Set(assignments...)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"master_id": id}).Error("Failed to update master record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update master record")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("master record %s not found", id))
	}

	return r.Get(ctx, id)
}

// Delete soft-deletes a master record
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.Delete")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("master_records")
	sb.Set(
		sb.Assign("deleted_at", now),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"master_id": id}).Error("Failed to delete master record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete master record")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("master record %s not found", id))
	}

	return nil
}
