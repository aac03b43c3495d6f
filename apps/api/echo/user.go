package echoapi

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

// PhotosDir is the storage directory of user photos.
const PhotosDir = "users"

type userApi struct {
	conf     *core.Config
	svc      user.Service
	store    core.FileStore
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, auth, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		conf:     deps.Conf,
		svc:      deps.UserSvc,
		store:    deps.Store,
		validate: deps.Validate,
	}

	// un-authed endpoints
	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken)
	g.POST("/admin/login", api.adminLogin)

	ug := g.Group("/users", auth)
	ug.GET("", api.query)
	ug.GET("/me", api.retrieve)
	ug.PATCH("/me", api.update)
	ug.PATCH("/me/photo", api.updatePhoto)
	ug.POST("/me/password-code", api.requestPasswordCode)
	ug.PATCH("/me/password", api.changePassword)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	usr, err := api.authenticate(ctx)
	if err != nil {
		return err
	}
	return api.respondTokens(ctx, usr)
}

func (api *userApi) adminLogin(ctx echo.Context) error {
	usr, err := api.authenticate(ctx)
	if err != nil {
		return err
	}
	if !usr.IsAdmin {
		return errNotAdmin
	}
	return api.respondTokens(ctx, usr)
}

func (api *userApi) authenticate(ctx echo.Context) (user.User, error) {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return user.User{}, errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return user.User{}, err
	}
	return authenticate(ctx.Request().Context(), data.Email, data.Password, api.svc)
}

func (api *userApi) respondTokens(ctx echo.Context, usr user.User) error {
	tokens, err := GenerateTokens(api.conf, usr)
	if err != nil {
		return errors.Wrap(err, "generating tokens")
	}
	return ctx.JSON(http.StatusOK, tokens)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	tokens, err := refreshTokens(ctx.Request().Context(), api.conf, api.svc, data.RefreshToken)
	if err != nil {
		return errors.Wrap(err, "refreshing tokens")
	}
	return ctx.JSON(http.StatusOK, tokens)
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.Query(ctx.Request().Context(), user.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(ctx.Request().Context(), usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) updatePhoto(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	fh, err := ctx.FormFile("photo")
	if err != nil {
		return core.NewFieldValidationError("photo", "this field is required")
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded photo")
	}
	defer src.Close()

	rctx := ctx.Request().Context()
	name := path.Join(PhotosDir, uuid.New().String()+strings.ToLower(path.Ext(fh.Filename)))
	if name, err = api.store.Save(rctx, name, src); err != nil {
		return errors.Wrap(err, "saving photo")
	}

	old := usr.Photo
	usr, err = api.svc.SetPhoto(rctx, usr, name)
	if err != nil {
		_ = api.store.Delete(rctx, name)
		return errors.Wrap(err, "setting photo")
	}
	if old != "" {
		if err := api.store.Delete(rctx, old); err != nil && errors.Cause(err) != core.ErrFileNotFound {
			ctx.Logger().Errorf("%+v", errors.Wrap(err, "deleting previous photo"))
		}
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) requestPasswordCode(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.RequestPasswordCode(ctx.Request().Context(), usr); err != nil {
		return errors.Wrap(err, "requesting password code")
	}
	return ctx.JSON(http.StatusOK, StatusResponse{Status: "success", Detail: "Check your email"})
}

func (api *userApi) changePassword(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(api.validate, usr); err != nil {
		return err
	}

	usr, err = api.svc.ChangePassword(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, usr)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	StatusResponse struct {
		Status string `json:"status"`
		Detail string `json:"detail"`
	}

	SuccessResponse struct {
		Success bool `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
