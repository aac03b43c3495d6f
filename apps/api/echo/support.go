package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core/support"
	"github.com/Hoopakid/HRMobileProjectBackend/core/task"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

type supportApi struct {
	svc      *support.Service
	taskSvc  *task.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerSupportAPI(g *echo.Group, auth, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := supportApi{
		svc:      deps.SupportSvc,
		taskSvc:  deps.TaskSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	g.GET("/support", api.queryMine, auth)
	g.POST("/tasks/:id/support", api.askAboutTask, auth)

	ag := g.Group("/admin/support", auth, admin)
	ag.GET("", api.query)
	ag.POST("", api.reply)
}

func (api *supportApi) bindMessage(ctx echo.Context) (support.NewMessage, error) {
	var data support.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to NewMessage")
	}
	return data, data.Validate(api.validate)
}

func respondMessages(ctx echo.Context, msgs []support.Message) error {
	if msgs == nil {
		msgs = []support.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *supportApi) askAboutTask(ctx echo.Context) error {
	t, err := getVisibleTask(ctx, api.taskSvc, api.userSvc)
	if err != nil {
		return err
	}
	data, err := api.bindMessage(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msg, err := api.svc.AskAboutTask(ctx.Request().Context(), usr, t, data)
	if err != nil {
		return errors.Wrap(err, "asking about task")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *supportApi) queryMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	msgs, err := api.svc.QueryForUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying support messages")
	}
	return respondMessages(ctx, msgs)
}

// query lists the messages of `?task_id=`, or those of the context admin when it is absent.
func (api *supportApi) query(ctx echo.Context) error {
	taskID, err := queryID(ctx, "task_id")
	if err != nil {
		return err
	}

	var msgs []support.Message
	if taskID > 0 {
		msgs, err = api.svc.QueryForTask(ctx.Request().Context(), taskID)
	} else {
		var usr user.User
		if usr, err = getContextUser(ctx, api.userSvc); err != nil {
			return errors.Wrap(err, "getting context user")
		}
		msgs, err = api.svc.QueryForUser(ctx.Request().Context(), usr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying support messages")
	}
	return respondMessages(ctx, msgs)
}

func (api *supportApi) reply(ctx echo.Context) error {
	data, err := api.bindMessage(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msg, err := api.svc.Reply(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "replying")
	}
	return ctx.JSON(http.StatusCreated, msg)
}
