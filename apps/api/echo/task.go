package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core/task"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

type taskApi struct {
	svc      *task.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, auth, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := taskApi{svc: deps.TaskSvc, userSvc: deps.UserSvc, validate: deps.Validate}

	// admin endpoints
	ag := g.Group("/admin/tasks", auth, admin)
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)

	// mobile endpoints
	mg := g.Group("/tasks", auth)
	mg.GET("", api.queryMine)
	mg.GET("/grouped", api.queryGrouped)
	mg.GET("/:id", api.retrieveMine)
	mg.PATCH("/:id/start", api.start)
	mg.PATCH("/:id/complete", api.complete)
}

func (api *taskApi) getObject(ctx echo.Context) (task.Task, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return task.Task{}, err
	}
	t, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return task.Task{}, notFound(errors.Wrap(err, "finding task by ID"), task.ErrNotFound)
	}
	return t, nil
}

func bindTaskFilter(ctx echo.Context) (task.QueryFilter, error) {
	var filter task.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	return filter, nil
}

// Admin handlers

func (api *taskApi) query(ctx echo.Context) error {
	filter, err := bindTaskFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tasks, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	t, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	t, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(ctx.Request().Context(), t, api.validate, api.svc); err != nil {
		return err
	}

	t, err = api.svc.Update(ctx.Request().Context(), t, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	t, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), t.ID); err != nil {
		return notFound(errors.Wrap(err, "deleting task"), task.ErrNotFound)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Mobile handlers

func (api *taskApi) queryVisible(ctx echo.Context) ([]task.Task, error) {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return nil, errors.Wrap(err, "getting context user")
	}
	filter, err := bindTaskFilter(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := api.svc.QueryVisible(ctx.Request().Context(), usr, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying visible tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

func (api *taskApi) queryMine(ctx echo.Context) error {
	tasks, err := api.queryVisible(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) queryGrouped(ctx echo.Context) error {
	tasks, err := api.queryVisible(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, task.GroupByStatus(tasks))
}

func (api *taskApi) retrieveMine(ctx echo.Context) error {
	t, err := getVisibleTask(ctx, api.svc, api.userSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) start(ctx echo.Context) error {
	return api.transition(ctx, api.svc.Start)
}

func (api *taskApi) complete(ctx echo.Context) error {
	return api.transition(ctx, api.svc.Complete)
}

func (api *taskApi) transition(ctx echo.Context, move func(ctx context.Context, usr user.User, id int) (task.Task, error)) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	t, err := move(ctx.Request().Context(), usr, id)
	if err != nil {
		return notFound(errors.Wrap(err, "moving task"), task.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, t)
}

// getVisibleTask resolves the `:id` task of a mobile route; tasks the context user cannot see are a 404.
func getVisibleTask(ctx echo.Context, svc *task.Service, userSvc user.Service) (task.Task, error) {
	usr, err := getContextUser(ctx, userSvc)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return task.Task{}, err
	}
	t, err := svc.GetVisible(ctx.Request().Context(), usr, id)
	if err != nil {
		return task.Task{}, notFound(errors.Wrap(err, "finding visible task"), task.ErrNotFound)
	}
	return t, nil
}
