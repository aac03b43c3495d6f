package tests

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/support"
	"github.com/Hoopakid/HRMobileProjectBackend/core/task"
	"github.com/Hoopakid/HRMobileProjectBackend/tests"
)

func Test_supportApi(t *testing.T) {
	env := setup(t)
	backend := testutil.CreateDegree(t, env.degreeRepo, "Backend")
	ali := env.createUser(t, "Ali", "+998901112233", "ali@test.uz", backend.ID, false)
	sami := env.createUser(t, "Sami", "+998901112244", "sami@test.uz", 0, false)
	admin := env.createUser(t, "Boss", "+998901112255", "boss@test.uz", 0, true)
	aliToken := getToken(t, env.conf, ali)
	adminToken := getToken(t, env.conf, admin)

	deadline := core.NewDate(time.Now().AddDate(0, 0, 3))
	tsk := testutil.CreateTask(t, env.taskRepo, "API", ali.ID, backend.ID, deadline, task.ImportanceHigh, task.StatusNotCompleted)
	askPath := "/v1/tasks/" + strconv.Itoa(tsk.ID) + "/support"

	body := func(msg string, receiverID int) []byte {
		return marchallObj(t, support.NewMessage{Message: msg, ReceiverID: receiverID})
	}

	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: askPath, token: aliToken, body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"message": "this field is required", "receiver_id": "this field is required"}),
		},
		{
			name: "receiver must be an admin", method: http.MethodPost, path: askPath, token: aliToken, body: body("help", sami.ID),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"receiver_id": support.ErrReceiverNotAdmin.Error()}),
		},
		{
			name: "unknown receiver", method: http.MethodPost, path: askPath, token: aliToken, body: body("help", 999),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"receiver_id": support.ErrReceiverNotFound.Error()}),
		},
		{
			name: "task must be visible", method: http.MethodPost, path: askPath, token: getToken(t, env.conf, sami), body: body("help", admin.ID),
			wantCode: http.StatusNotFound,
		},
		{name: "ask", method: http.MethodPost, path: askPath, token: aliToken, body: body(" help me ", admin.ID), wantCode: http.StatusCreated, extra: support.KindTask},
		{
			name: "reply requires admin", method: http.MethodPost, path: "/v1/admin/support", token: aliToken, body: body("hi", sami.ID),
			wantCode: http.StatusForbidden,
		},
		{name: "reply", method: http.MethodPost, path: "/v1/admin/support", token: adminToken, body: body("on it", ali.ID), wantCode: http.StatusCreated, extra: support.KindSupport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if kind, ok := tt.extra.(string); ok {
				var msg support.Message
				decode(t, rec, &msg)
				assert.Equal(t, kind, msg.Kind)
				if kind == support.KindTask {
					assert.Equal(t, "help me", msg.Message)
					assert.Equal(t, ali.ID, msg.SenderID)
					if assert.NotNil(t, msg.TaskID) {
						assert.Equal(t, tsk.ID, *msg.TaskID)
					}
				} else {
					assert.Equal(t, admin.ID, msg.SenderID)
					assert.Nil(t, msg.TaskID)
				}
			}
		})
	}

	t.Run("my messages, newest first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/support", aliToken)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var msgs []support.Message
		decode(t, rec, &msgs)
		require.Len(t, msgs, 2)
		assert.Equal(t, "on it", msgs[0].Message)
		assert.Equal(t, "help me", msgs[1].Message)

		req, rec = newAuthRequest(http.MethodGet, "/v1/support", getToken(t, env.conf, sami))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})

	t.Run("task messages", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/support?task_id="+strconv.Itoa(tsk.ID), adminToken)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var msgs []support.Message
		decode(t, rec, &msgs)
		require.Len(t, msgs, 1)
		assert.Equal(t, support.KindTask, msgs[0].Kind)

		req, rec = newAuthRequest(http.MethodGet, "/v1/admin/support?task_id=abc", adminToken)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
