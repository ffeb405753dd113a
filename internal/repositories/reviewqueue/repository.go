package reviewqueue

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

const columns = "id, source, external_sku, record, master_id, confidence, reasoning, status, created_at, resolved_at, resolved_by"

// Repository handles the manual review queue
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new review queue repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Enqueue stores a review entry. A pending entry for the same record and
// master is updated in place so repeated resolutions don't pile up
// duplicate review work.
func (r *Repository) Enqueue(ctx context.Context, entry *models.ReviewEntry) (*models.ReviewEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.Enqueue")
	defer span.End()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.Status = models.ReviewStatusPending
	entry.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("review_queue")
	sb.Cols("id", "source", "external_sku", "record", "master_id", "confidence", "reasoning", "status", "created_at")
	sb.Values(entry.ID, entry.Source, entry.ExternalSKU, entry.Record, entry.MasterID, entry.Confidence, entry.Reasoning, entry.Status, entry.CreatedAt)

	query, args := sb.Build()
	query += " ON CONFLICT (source, external_sku, master_id) WHERE status = 'pending' DO UPDATE SET record = EXCLUDED.record, confidence = EXCLUDED.confidence, reasoning = EXCLUDED.reasoning, created_at = EXCLUDED.created_at"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source": entry.Source, "external_sku": entry.ExternalSKU}).Error("Failed to enqueue review entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to enqueue review entry")
	}

	return entry, nil
}

// Get retrieves a review entry by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.ReviewEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("review_queue")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var entry models.ReviewEntry
	if err := r.db.GetContext(ctx, &entry, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("review entry %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get review entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review entry")
	}

	return &entry, nil
}

// ListPending retrieves pending review entries, highest confidence first
func (r *Repository) ListPending(ctx context.Context, limit int) ([]models.ReviewEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.ListPending")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("review_queue")
	sb.Where(sb.Equal("status", models.ReviewStatusPending))
	sb.OrderBy("confidence DESC", "created_at ASC")
	sb.Limit(limit)

	query, args := sb.Build()
	var entries []models.ReviewEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list pending review entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list review entries")
	}

	return entries, nil
}

// Resolve marks a pending entry approved or rejected
func (r *Repository) Resolve(ctx context.Context, id string, status string, resolvedBy string) (*models.ReviewEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.Resolve")
	defer span.End()

	if status != models.ReviewStatusApproved && status != models.ReviewStatusRejected {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid review status %q", status)
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("review_queue")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("resolved_at", now),
		sb.Assign("resolved_by", resolvedBy),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("status", models.ReviewStatusPending),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"review_id": id}).Error("Failed to resolve review entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve review entry")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("pending review entry %s not found", id))
	}

	return r.Get(ctx, id)
}

// PendingCount returns the number of entries awaiting review
func (r *Repository) PendingCount(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.PendingCount")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("review_queue")
	sb.Where(sb.Equal("status", models.ReviewStatusPending))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count pending review entries")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count review entries")
	}

	return count, nil
}
