package tests

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Hoopakid/HRMobileProjectBackend/core/degree"
	"github.com/Hoopakid/HRMobileProjectBackend/tests"
)

func Test_degreeApi(t *testing.T) {
	env := setup(t)
	backend := testutil.CreateDegree(t, env.degreeRepo, "Backend")
	frontend := testutil.CreateDegree(t, env.degreeRepo, "Frontend")
	student := env.createUser(t, "Ali", "+998901112233", "ali@test.uz", backend.ID, false)
	admin := env.createUser(t, "Boss", "+998901112244", "boss@test.uz", 0, true)
	adminToken := getToken(t, env.conf, admin)

	detail := func(id int) string { return "/v1/admin/degrees/" + strconv.Itoa(id) }
	notFound := marchallObj(t, httpErr{Error: "not found"})

	tests := []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/admin/degrees", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", method: http.MethodGet, path: "/v1/admin/degrees", token: getToken(t, env.conf, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "list", method: http.MethodGet, path: "/v1/admin/degrees", token: adminToken, wantData: marchallList(t, backend, frontend)},
		{name: "retrieve", method: http.MethodGet, path: detail(frontend.ID), token: adminToken, wantData: marchallObj(t, frontend)},
		{name: "retrieve unknown", method: http.MethodGet, path: detail(999), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "retrieve bad id", method: http.MethodGet, path: "/v1/admin/degrees/abc", token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "create required", method: http.MethodPost, path: "/v1/admin/degrees", token: adminToken, body: []byte(`{"degree":"  "}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"degree": "this field is required"}),
		},
		{
			name: "create duplicate", method: http.MethodPost, path: "/v1/admin/degrees", token: adminToken, body: []byte(`{"degree":"backend"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"degree": degree.ErrNameExists.Error()}),
		},
		{name: "create", method: http.MethodPost, path: "/v1/admin/degrees", token: adminToken, body: []byte(`{"degree":"Mobile"}`), wantCode: http.StatusCreated},
		{
			name: "rename to a taken name", method: http.MethodPut, path: detail(frontend.ID), token: adminToken, body: []byte(`{"degree":"Backend"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"degree": degree.ErrNameExists.Error()}),
		},
		{name: "rename to itself", method: http.MethodPut, path: detail(frontend.ID), token: adminToken, body: []byte(`{"degree":"Frontend"}`)},
		{
			name: "delete in use", method: http.MethodDelete, path: detail(backend.ID), token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: degree.ErrDegreeInUse.Error()}),
		},
		{name: "delete", method: http.MethodDelete, path: detail(frontend.ID), token: adminToken, wantCode: http.StatusNoContent},
		{name: "deleted", method: http.MethodGet, path: detail(frontend.ID), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
	}

	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var dgr degree.Degree
				decode(t, rec, &dgr)
				assert.Equal(t, "Mobile", dgr.Name)
				assert.NotZero(t, dgr.ID)
			}
		})
	}
}

func Test_adminMiddleware_revocation(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Boss", "+998901112244", "boss@test.uz", 0, true)
	token := getToken(t, env.conf, admin)

	req, rec := newAuthRequest(http.MethodGet, "/v1/admin/degrees", token)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the token stays valid but the stored flag is what counts
	_, err := env.usrSvc.SetAdmin(req.Context(), admin, false)
	assert.NoError(t, err)

	req, rec = newAuthRequest(http.MethodGet, "/v1/admin/degrees", token)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
