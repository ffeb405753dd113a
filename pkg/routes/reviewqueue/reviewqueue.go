package reviewqueue

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/reviewqueue"
	"github.com/Ramsey-B/clover/pkg/catalog"
)

var validate = validator.New()

// ResolveReviewRequest carries the reviewer identity for an approve or
// reject action
type ResolveReviewRequest struct {
	ResolvedBy string `json:"resolved_by" validate:"required"`
}

// Register registers review queue routes
func Register(g *echo.Group) {
	g.GET("", ListPending)
	g.GET("/count", PendingCount)
	g.GET("/:id", Get)
	g.POST("/:id/approve", Approve)
	g.POST("/:id/reject", Reject)
}

// ListPending lists pending review entries, highest confidence first
func ListPending(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, repo, err := ectoinject.GetContext[*reviewqueue.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	entries, err := repo.ListPending(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}

// PendingCount returns the number of entries awaiting review
func PendingCount(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*reviewqueue.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	count, err := repo.PendingCount(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]int{"pending": count})
}

// Get returns a single review entry by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*reviewqueue.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	entry, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entry)
}

// Approve approves a review entry and links the SKU to the proposed master
func Approve(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	var req ResolveReviewRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*catalog.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	entry, err := service.ApproveReview(ctx, id, req.ResolvedBy)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"review_id":   id,
			"master_id":   entry.MasterID,
			"resolved_by": req.ResolvedBy,
		}).Info("Approved review entry")
	}

	return c.JSON(http.StatusOK, entry)
}

// Reject rejects a review entry without linking
func Reject(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	var req ResolveReviewRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*catalog.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	entry, err := service.RejectReview(ctx, id, req.ResolvedBy)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"review_id":   id,
			"resolved_by": req.ResolvedBy,
		}).Info("Rejected review entry")
	}

	return c.JSON(http.StatusOK, entry)
}
