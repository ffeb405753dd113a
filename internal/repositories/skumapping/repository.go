package skumapping

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

const columns = "id, source, external_sku, master_id, confidence, linked_by, created_at, deleted_at"

// Repository handles SKU to master record link persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new SKU mapping repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Link records a (source, external_sku) -> master link. An existing active
// link for the same pair is replaced; re-resolving a record must not
// accumulate duplicate links.
func (r *Repository) Link(ctx context.Context, mapping *models.SkuMapping) (*models.SkuMapping, error) {
	ctx, span := tracing.StartSpan(ctx, "skumapping.Repository.Link")
	defer span.End()

	if mapping.ID == "" {
		mapping.ID = uuid.New().String()
	}
	mapping.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("sku_mappings")
	sb.Cols("id", "source", "external_sku", "master_id", "confidence", "linked_by", "created_at")
	sb.Values(mapping.ID, mapping.Source, mapping.ExternalSKU, mapping.MasterID, mapping.Confidence, mapping.LinkedBy, mapping.CreatedAt)

	query, args := sb.Build()
	query += " ON CONFLICT (source, external_sku) WHERE deleted_at IS NULL DO UPDATE SET master_id = EXCLUDED.master_id, confidence = EXCLUDED.confidence, linked_by = EXCLUDED.linked_by"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source": mapping.Source, "external_sku": mapping.ExternalSKU}).Error("Failed to link SKU")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to link sku")
	}

	return mapping, nil
}

// Get retrieves the active link for a (source, external_sku) pair. Returns
// nil without error when the pair is unlinked.
func (r *Repository) Get(ctx context.Context, source models.Source, externalSKU string) (*models.SkuMapping, error) {
	ctx, span := tracing.StartSpan(ctx, "skumapping.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("sku_mappings")
	sb.Where(
		sb.Equal("source", source),
		sb.Equal("external_sku", externalSKU),
		sb.IsNull("deleted_at"),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var mapping models.SkuMapping
	if err := r.db.GetContext(ctx, &mapping, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get sku mapping")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get sku mapping")
	}

	return &mapping, nil
}

// ListByMaster retrieves every active link pointing at a master record
func (r *Repository) ListByMaster(ctx context.Context, masterID string) ([]models.SkuMapping, error) {
	ctx, span := tracing.StartSpan(ctx, "skumapping.Repository.ListByMaster")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("sku_mappings")
	sb.Where(
		sb.Equal("master_id", masterID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("source ASC", "external_sku ASC")

	query, args := sb.Build()
	var mappings []models.SkuMapping
	if err := r.db.SelectContext(ctx, &mappings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list sku mappings by master")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list sku mappings")
	}

	return mappings, nil
}

// ListBySource retrieves every active link for a source system
func (r *Repository) ListBySource(ctx context.Context, source models.Source) ([]models.SkuMapping, error) {
	ctx, span := tracing.StartSpan(ctx, "skumapping.Repository.ListBySource")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("sku_mappings")
	sb.Where(
		sb.Equal("source", source),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var mappings []models.SkuMapping
	if err := r.db.SelectContext(ctx, &mappings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list sku mappings by source")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list sku mappings")
	}

	return mappings, nil
}

// LinkedSet loads every active link as a lookup keyed by source/external_sku.
// One read per batch; the matcher consults the map, never the database.
func (r *Repository) LinkedSet(ctx context.Context) (map[string]string, error) {
	ctx, span := tracing.StartSpan(ctx, "skumapping.Repository.LinkedSet")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("source", "external_sku", "master_id")
	sb.From("sku_mappings")
	sb.Where(sb.IsNull("deleted_at"))

	query, args := sb.Build()
	var rows []struct {
		Source      models.Source `db:"source"`
		ExternalSKU string        `db:"external_sku"`
		MasterID    string        `db:"master_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load sku link set")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load sku links")
	}

	links := make(map[string]string, len(rows))
	for _, row := range rows {
		links[string(row.Source)+"/"+row.ExternalSKU] = row.MasterID
	}
	return links, nil
}

// Unlink soft-deletes the active link for a (source, external_sku) pair
func (r *Repository) Unlink(ctx context.Context, source models.Source, externalSKU string) error {
	ctx, span := tracing.StartSpan(ctx, "skumapping.Repository.Unlink")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("sku_mappings")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("source", source),
		sb.Equal("external_sku", externalSKU),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to unlink sku")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to unlink sku")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("sku mapping %s/%s not found", source, externalSKU))
	}

	return nil
}
