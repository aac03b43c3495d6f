package echoapi

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/task"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

const additionFormField = "file"

type additionApi struct {
	svc     *task.Service
	userSvc user.Service
}

func registerAdditionAPI(g *echo.Group, auth, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := additionApi{svc: deps.TaskSvc, userSvc: deps.UserSvc}

	// no groups here: a group with middleware registers a not-found catch-all on its prefix
	g.GET("/admin/tasks/:id/additions", api.queryForTask, auth, admin)
	g.POST("/admin/tasks/:id/additions", api.create, auth, admin)
	g.GET("/admin/additions", api.query, auth, admin)
	g.GET("/admin/additions/:id", api.retrieve, auth, admin)
	g.GET("/admin/additions/:id/download", api.download, auth, admin)
	g.PUT("/admin/additions/:id", api.replace, auth, admin)
	g.DELETE("/admin/additions/:id", api.destroy, auth, admin)

	g.GET("/tasks/:id/additions", api.queryForVisibleTask, auth)
}

func (api *additionApi) getObject(ctx echo.Context) (task.Addition, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return task.Addition{}, err
	}
	a, err := api.svc.GetAddition(ctx.Request().Context(), id)
	if err != nil {
		return task.Addition{}, notFound(errors.Wrap(err, "finding addition by ID"), task.ErrAdditionNotFound)
	}
	return a, nil
}

// formFile opens the uploaded multipart file; it is the caller's job to close it.
func formFile(ctx echo.Context, field string) (string, io.ReadCloser, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return "", nil, core.NewFieldValidationError(field, "this field is required")
	}
	src, err := fh.Open()
	if err != nil {
		return "", nil, errors.Wrap(err, "opening uploaded file")
	}
	return fh.Filename, src, nil
}

func (api *additionApi) respondList(ctx echo.Context, taskID int) error {
	additions, err := api.svc.QueryAdditions(ctx.Request().Context(), taskID)
	if err != nil {
		return errors.Wrap(err, "querying additions")
	}
	if additions == nil {
		additions = []task.Addition{}
	}
	return ctx.JSON(http.StatusOK, additions)
}

func (api *additionApi) query(ctx echo.Context) error {
	return api.respondList(ctx, 0)
}

func (api *additionApi) queryForTask(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	t, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return notFound(errors.Wrap(err, "finding task by ID"), task.ErrNotFound)
	}
	return api.respondList(ctx, t.ID)
}

func (api *additionApi) queryForVisibleTask(ctx echo.Context) error {
	t, err := getVisibleTask(ctx, api.svc, api.userSvc)
	if err != nil {
		return err
	}
	return api.respondList(ctx, t.ID)
}

func (api *additionApi) create(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	t, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return notFound(errors.Wrap(err, "finding task by ID"), task.ErrNotFound)
	}

	filename, src, err := formFile(ctx, additionFormField)
	if err != nil {
		return err
	}
	defer src.Close()

	a, err := api.svc.AddAddition(ctx.Request().Context(), t, filename, src)
	if err != nil {
		return errors.Wrap(err, "adding addition")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *additionApi) retrieve(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *additionApi) download(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	rc, err := api.svc.OpenAddition(ctx.Request().Context(), a)
	if err != nil {
		return notFound(errors.Wrap(err, "opening addition"), core.ErrFileNotFound)
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(path.Ext(a.File))
	if ctype == "" {
		ctype = echo.MIMEOctetStream
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{
		"filename": a.Filename(),
	}))
	return ctx.Stream(http.StatusOK, ctype, rc)
}

func (api *additionApi) replace(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	filename, src, err := formFile(ctx, additionFormField)
	if err != nil {
		return err
	}
	defer src.Close()

	a, err = api.svc.ReplaceAddition(ctx.Request().Context(), a, filename, src)
	if err != nil {
		return notFound(errors.Wrap(err, "replacing addition"), task.ErrAdditionNotFound)
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *additionApi) destroy(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAddition(ctx.Request().Context(), a); err != nil {
		return notFound(errors.Wrap(err, "deleting addition"), task.ErrAdditionNotFound)
	}
	return ctx.NoContent(http.StatusNoContent)
}
