package resolution

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/catalog"
	"github.com/Ramsey-B/clover/pkg/models"
)

var validate = validator.New()

// Register registers resolution routes
func Register(g *echo.Group) {
	g.POST("", Resolve)
	g.POST("/batch", ResolveBatch)
	g.POST("/candidates", ListCandidates)
}

// Resolve resolves a single incoming record against the master catalog.
// When apply is true the decision's side effects are persisted.
func Resolve(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.ResolveRequest
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

	result, err := service.Resolve(ctx, req.Record, req.Apply)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ResolveBatch resolves a batch of incoming records. Per-record failures are
// reported in the response stats rather than failing the whole batch.
func ResolveBatch(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.ResolveBatchRequest
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

	batch, err := service.ResolveBatch(ctx, req.Records, req.Apply)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"total":         batch.Stats.Total,
			"auto_accepted": batch.Stats.AutoAccepted,
			"manual_review": batch.Stats.ManualReview,
			"errors":        batch.Stats.ErrorCount(),
		}).Info("Resolved batch via API")
	}

	return c.JSON(http.StatusOK, batch)
}

// ListCandidates scores a record against every master and returns all
// candidates in rank order. No side effects; intended for review tooling.
func ListCandidates(c echo.Context) error {
	ctx := c.Request().Context()

	var record models.IncomingRecord
	if err := c.Bind(&record); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(record); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*catalog.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	results, err := service.ResolveAll(ctx, record)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, results)
}
