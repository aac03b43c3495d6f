package echoapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/chat"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
	"github.com/Hoopakid/HRMobileProjectBackend/services/relay"
)

// maxFileSize bounds the payloads broadcast by send-file.
const maxFileSize = 10 << 20

type chatApi struct {
	conf     *core.Config
	logger   core.Logger
	svc      *chat.Service
	userSvc  user.Service
	registry *chat.Registry
	upgrader *websocket.Upgrader
}

func registerChatAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := chatApi{
		conf:     deps.Conf,
		logger:   deps.Logger,
		svc:      deps.ChatSvc,
		userSvc:  deps.UserSvc,
		registry: deps.Registry,
		upgrader: relay.NewUpgrader(deps.Conf.Server.AllowedOrigins),
	}

	cg := g.Group("/chat", auth)
	cg.GET("/ws/:room", api.connect)
	cg.POST("/send-message", api.sendMessage)
	cg.POST("/room", api.resolveRoom)
	cg.GET("/messages", api.history)
	cg.GET("/users", api.queryUsers)
	cg.POST("/send-file", api.sendFile)
}

// connect upgrades to a WebSocket and relays its frames to every peer of the room until it closes.
func (api *chatApi) connect(ctx echo.Context) error {
	room := ctx.Param("room")
	if api.registry.Full() {
		return errChatFull
	}

	ws, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return nil // the upgrader has already replied
	}
	conn := relay.NewConn(ws, api.conf.Chat.MaxMessageSize, api.logger)

	if err := api.registry.Serve(ctx.Request().Context(), conn, room); err != nil {
		// the capacity was taken between the check and the upgrade
		_ = conn.CloseWith(relay.CloseTryAgainLater, err.Error())
		return nil
	}
	_ = conn.Close()
	return nil
}

func (api *chatApi) sendMessage(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if _, err := api.svc.SendMessage(ctx.Request().Context(), usr.ID, data); err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: true})
}

func (api *chatApi) resolveRoom(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data chat.ResolveRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResolveRoom")
	}
	room, err := api.svc.ResolveRoom(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "resolving room")
	}
	return ctx.JSON(http.StatusOK, room)
}

func (api *chatApi) history(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	otherID, err := queryID(ctx, "receiver_id")
	if err != nil {
		return err
	}

	msgs, err := api.svc.History(ctx.Request().Context(), usr.ID, otherID)
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *chatApi) queryUsers(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	users, err := api.userSvc.Query(ctx.Request().Context(), user.QueryFilter{ExcludeID: usr.ID})
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

// sendFile broadcasts a file to `?room=`, base64 encoded. The file is the multipart `file` field or the raw body.
func (api *chatApi) sendFile(ctx echo.Context) error {
	room := ctx.QueryParam("room")
	if room == "" {
		return core.NewFieldValidationError("room", "this field is required")
	}

	var src io.ReadCloser
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		var err error
		if _, src, err = formFile(ctx, "file"); err != nil {
			return err
		}
	} else {
		src = ctx.Request().Body
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxFileSize+1))
	if err != nil {
		return errors.Wrap(err, "reading file")
	}
	if len(data) == 0 {
		return core.NewFieldValidationError("file", "this field is required")
	}
	if len(data) > maxFileSize {
		return core.NewFieldValidationError("file", "file too large")
	}

	n := api.registry.SendFile(room, data)
	return ctx.JSON(http.StatusOK, FileSentResponse{Message: "File sent", Delivered: n})
}

type FileSentResponse struct {
	Message   string `json:"message"`
	Delivered int    `json:"delivered"`
}
