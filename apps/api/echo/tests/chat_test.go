package tests

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Hoopakid/HRMobileProjectBackend/apps/api/echo"
	"github.com/Hoopakid/HRMobileProjectBackend/core/chat"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

func dialRoom(t *testing.T, srv *httptest.Server, room, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/chat/ws/" + room
	if token != "" {
		u += "?token=" + token
	}
	ws, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if ws != nil {
		t.Cleanup(func() { _ = ws.Close() })
	}
	return ws, resp, err
}

func waitForMembers(t *testing.T, reg *chat.Registry, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return reg.Len() == n }, 2*time.Second, 10*time.Millisecond)
}

func Test_chatApi_relay(t *testing.T) {
	env := setup(t)
	ali := env.createUser(t, "Ali", "+998901112233", "ali@test.uz", 0, false)
	vali := env.createUser(t, "Vali", "+998901112244", "vali@test.uz", 0, false)
	aliToken := getToken(t, env.conf, ali)
	valiToken := getToken(t, env.conf, vali)

	srv := httptest.NewServer(env.app)
	t.Cleanup(srv.Close)

	t.Run("auth required", func(t *testing.T) {
		_, resp, err := dialRoom(t, srv, "room1", "")
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, 0, env.registry.Len())
	})

	wsAli, _, err := dialRoom(t, srv, "room1", aliToken)
	require.NoError(t, err)
	wsVali, _, err := dialRoom(t, srv, "room1", valiToken)
	require.NoError(t, err)
	waitForMembers(t, env.registry, 2)

	t.Run("frames are relayed to the whole room", func(t *testing.T) {
		require.NoError(t, wsAli.WriteMessage(websocket.TextMessage, []byte("salom")))
		for _, ws := range []*websocket.Conn{wsAli, wsVali} {
			_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, msg, err := ws.ReadMessage()
			require.NoError(t, err)
			assert.Equal(t, "salom", string(msg))
		}
	})

	t.Run("capacity", func(t *testing.T) {
		_, resp, err := dialRoom(t, srv, "room2", aliToken)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body httpErr
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, chat.ErrCapacityExceeded.Error(), body.Error)
		assert.Equal(t, 2, env.registry.Len())
	})

	t.Run("send-file", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, "/v1/chat/send-file?room=room1", aliToken, "file", "a.bin", []byte{0, 1, 2})
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK, wantData: marchallObj(t, FileSentResponse{Message: "File sent", Delivered: 2}),
		}, rec)

		want := base64.StdEncoding.EncodeToString([]byte{0, 1, 2})
		for _, ws := range []*websocket.Conn{wsAli, wsVali} {
			_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, msg, err := ws.ReadMessage()
			require.NoError(t, err)
			assert.Equal(t, want, string(msg))
		}

		// raw body, empty room
		req, rec = newAuthRequest(http.MethodPost, "/v1/chat/send-file?room=nobody", aliToken, []byte("raw"))
		req.Header.Set("Content-Type", "application/octet-stream")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK, wantData: marchallObj(t, FileSentResponse{Message: "File sent", Delivered: 0}),
		}, rec)

		req, rec = newAuthRequest(http.MethodPost, "/v1/chat/send-file", aliToken, []byte("raw"))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"room": "this field is required"}),
		}, rec)
	})

	t.Run("disconnect frees a slot", func(t *testing.T) {
		require.NoError(t, wsVali.Close())
		waitForMembers(t, env.registry, 1)

		_, _, err := dialRoom(t, srv, "room2", valiToken)
		require.NoError(t, err)
		waitForMembers(t, env.registry, 2)
	})
}

func Test_chatApi_messages(t *testing.T) {
	env := setup(t)
	ali := env.createUser(t, "Ali", "+998901112233", "ali@test.uz", 0, false)
	vali := env.createUser(t, "Vali", "+998901112244", "vali@test.uz", 0, false)
	sami := env.createUser(t, "Sami", "+998901112255", "sami@test.uz", 0, false)
	aliToken := getToken(t, env.conf, ali)
	valiToken := getToken(t, env.conf, vali)

	send := func(token string, msg string, receiver int) *httptest.ResponseRecorder {
		req, rec := newAuthRequest(http.MethodPost, "/v1/chat/send-message", token, marchallObj(t, chat.NewMessage{Message: msg, Receiver: receiver}))
		env.app.ServeHTTP(rec, req)
		return rec
	}

	t.Run("auth required", func(t *testing.T) {
		for _, p := range []string{"/v1/chat/send-message", "/v1/chat/room", "/v1/chat/send-file"} {
			req, rec := newRequest(http.MethodPost, p, []byte("{}"))
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
		}
	})

	t.Run("send-message", func(t *testing.T) {
		rec := send(aliToken, "salom", vali.ID)
		checkCodeAndData(t, httpTest{wantCode: http.StatusCreated, wantData: marchallObj(t, SuccessResponse{Success: true})}, rec)
		rec = send(valiToken, "va alaykum", ali.ID)
		assert.Equal(t, http.StatusCreated, rec.Code)
		rec = send(aliToken, "to sami", sami.ID)
		assert.Equal(t, http.StatusCreated, rec.Code)

		rec = send(aliToken, "", vali.ID)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"message": "this field is required"})}, rec)
		rec = send(aliToken, "hello", 999)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"receiver": chat.ErrReceiverNotFound.Error()})}, rec)
		rec = send(aliToken, "hello me", ali.ID)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"receiver": chat.ErrSelfChat.Error()})}, rec)
	})

	t.Run("messages", func(t *testing.T) {
		for _, token := range []string{aliToken, valiToken} {
			other := vali.ID
			if token == valiToken {
				other = ali.ID
			}
			req, rec := newAuthRequest(http.MethodGet, "/v1/chat/messages?receiver_id="+strconv.Itoa(other), token)
			env.app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var msgs []chat.Message
			decode(t, rec, &msgs)
			require.Len(t, msgs, 2)
			assert.Equal(t, "salom", msgs[0].Message)
			assert.Equal(t, ali.ID, msgs[0].SenderID)
			assert.Equal(t, "va alaykum", msgs[1].Message)
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/chat/messages", aliToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"receiver_id": "this field is required"})}, rec)
	})

	t.Run("room", func(t *testing.T) {
		resolve := func(token string, receiverID int) *httptest.ResponseRecorder {
			req, rec := newAuthRequest(http.MethodPost, "/v1/chat/room", token, marchallObj(t, chat.ResolveRoom{ReceiverID: receiverID}))
			env.app.ServeHTTP(rec, req)
			return rec
		}

		rec := resolve(aliToken, vali.ID)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var room chat.Room
		decode(t, rec, &room)
		assert.Equal(t, chat.RoomKey(ali.ID, vali.ID), room.Key)
		assert.Equal(t, ali.ID, room.SenderID)

		// either side resolves the same room
		rec = resolve(valiToken, ali.ID)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, room)}, rec)

		rec = resolve(aliToken, ali.ID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec = resolve(aliToken, 999)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("users", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/chat/users", aliToken)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var users []user.User
		decode(t, rec, &users)
		ids := make([]int, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		assert.Equal(t, []int{vali.ID, sami.ID}, ids)
	})
}
