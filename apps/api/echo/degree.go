package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core/degree"
)

type degreeApi struct {
	svc      *degree.Service
	validate *validator.Validate
}

func registerDegreeAPI(g *echo.Group, auth, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := degreeApi{svc: deps.DegreeSvc, validate: deps.Validate}

	dg := g.Group("/admin/degrees", auth, admin)
	dg.GET("", api.query)
	dg.POST("", api.create)
	dg.GET("/:id", api.retrieve)
	dg.PUT("/:id", api.update)
	dg.DELETE("/:id", api.destroy)
}

func (api *degreeApi) getObject(ctx echo.Context) (degree.Degree, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return degree.Degree{}, err
	}
	dgr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return degree.Degree{}, notFound(errors.Wrap(err, "finding degree by ID"), degree.ErrNotFound)
	}
	return dgr, nil
}

func (api *degreeApi) query(ctx echo.Context) error {
	degrees, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying degrees")
	}
	if degrees == nil {
		degrees = []degree.Degree{}
	}
	return ctx.JSON(http.StatusOK, degrees)
}

func (api *degreeApi) create(ctx echo.Context) error {
	var data degree.EditDegree
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditDegree")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	dgr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating degree")
	}
	return ctx.JSON(http.StatusCreated, dgr)
}

func (api *degreeApi) retrieve(ctx echo.Context) error {
	dgr, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dgr)
}

func (api *degreeApi) update(ctx echo.Context) error {
	dgr, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data degree.EditDegree
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditDegree")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc, dgr); err != nil {
		return err
	}

	dgr, err = api.svc.Update(ctx.Request().Context(), dgr, data)
	if err != nil {
		return errors.Wrap(err, "updating degree")
	}
	return ctx.JSON(http.StatusOK, dgr)
}

func (api *degreeApi) destroy(ctx echo.Context) error {
	dgr, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), dgr.ID); err != nil {
		return errors.Wrap(err, "deleting degree")
	}
	return ctx.NoContent(http.StatusNoContent)
}
