package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Hoopakid/HRMobileProjectBackend/apps/api/echo"
	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/chat"
	"github.com/Hoopakid/HRMobileProjectBackend/core/degree"
	"github.com/Hoopakid/HRMobileProjectBackend/core/support"
	"github.com/Hoopakid/HRMobileProjectBackend/core/task"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
	"github.com/Hoopakid/HRMobileProjectBackend/services/email"
	"github.com/Hoopakid/HRMobileProjectBackend/services/logger"
	"github.com/Hoopakid/HRMobileProjectBackend/services/storage"
	"github.com/Hoopakid/HRMobileProjectBackend/storage/database/sqlx"
	"github.com/Hoopakid/HRMobileProjectBackend/tests"
)

const testPassword = "Str0ngPassw0rd"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app        Server
	conf       *core.Config
	usrRepo    user.Repository
	degreeRepo degree.Repository
	taskRepo   task.Repository
	usrSvc     user.Service
	mailSvc    *emailsvc.ConsoleServiceMock
	registry   *chat.Registry
	store      core.FileStore
}

func testConfig() *core.Config {
	return &core.Config{
		Env:                 "TEST",
		TestMode:            true,
		AppName:             "HRMobile",
		SecretKey:           "t3st-s3cr3t",
		PasswordCodeTimeout: 10 * time.Minute,
		Server: core.ServerConfig{
			DisableReqLogs:            true,
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 30 * 24 * time.Hour,
		},
		Chat: core.ChatConfig{Capacity: 2, MaxMessageSize: 64 << 10},
		Mail: core.MailConfig{DefaultFromEmail: "noreply@test.uz"},
	}
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	conf := testConfig()
	logger := logsvc.NewRollbarLogger(io.Discard, "api", conf)

	// set up DB & repos
	db := testutil.PrepareDB(t)
	env := &testEnv{
		conf:       conf,
		usrRepo:    sqlxrepos.NewUserRepository(db),
		degreeRepo: sqlxrepos.NewDegreeRepository(db),
		taskRepo:   sqlxrepos.NewTaskRepository(db),
	}

	store, err := storagesvc.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	env.store = store

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	env.mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	env.usrSvc = user.NewService(env.usrRepo, env.mailSvc, conf)
	taskSvc := task.NewService(env.taskRepo, env.usrSvc, store, logger)
	env.registry = chat.NewRegistry(conf.Chat.Capacity, logger)

	// set up server
	env.app = NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    env.usrSvc,
		DegreeSvc:  degree.NewService(env.degreeRepo),
		TaskSvc:    taskSvc,
		ChatSvc:    chat.NewService(sqlxrepos.NewChatRepository(db), env.usrSvc, validate),
		SupportSvc: support.NewService(sqlxrepos.NewSupportRepository(db), env.usrSvc),
		Registry:   env.registry,
		Store:      store,
		Validate:   validate,
		Translator: translator,
	})
	return env
}

func (env *testEnv) createUser(t *testing.T, first, phone, email string, degreeID int, isAdmin bool) user.User {
	t.Helper()
	return testutil.CreateUser(t, env.usrRepo, first, "Test", phone, email, testPassword, degreeID, isAdmin)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newMultipartRequest sends content as the `field` file of a multipart form.
func newMultipartRequest(t *testing.T, method, path, token, field, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getTokens(t *testing.T, conf *core.Config, usr user.User) Tokens {
	tokens, err := GenerateTokens(conf, usr)
	if err != nil {
		t.Fatalf("getTokens() failed: %v", err)
	}
	return tokens
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	return getTokens(t, conf, usr).AccessToken
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code; body %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
