package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

func TestPasswordPolicy(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	newUser := func(pwd string) *NewUser {
		return &NewUser{
			FirstName:   "Dilnoza",
			LastName:    "Karimova",
			PhoneNumber: "+998901234567",
			Email:       "dilnoza@test.uz",
			Degree:      1,
			Password:    pwd,
		}
	}

	tests := []struct {
		name    string
		pwd     string
		wantMsg string
	}{
		{name: "valid", pwd: "Kv8#tr9Lm"},
		{name: "required", pwd: "", wantMsg: "this field is required"},
		{name: "too short", pwd: "Ab1", wantMsg: pwdMinLenText},
		{name: "whitespace", pwd: "Abc 12345", wantMsg: pwdNoSpaceText},
		{name: "all numeric", pwd: "1234567890", wantMsg: pwdNotAllNumText},
		{name: "no upper", pwd: "abcdef123", wantMsg: pwdComplexityText},
		{name: "no digit", pwd: "Abcdefghi", wantMsg: pwdComplexityText},
		{name: "similar to email", pwd: "Dilnoza@test.uz1", wantMsg: pwdAttrSimText},
		{name: "common", pwd: "Password123", wantMsg: pwdNoCommonText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(newUser(tt.pwd))
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			require.Len(t, vErrs, 1)
			assert.Equal(t, "password", vErrs[0].Field())
			assert.Equal(t, tt.wantMsg, vErrs[0].Translate(translator))
		})
	}

	t.Run("change password", func(t *testing.T) {
		usr := User{FirstName: "Dilnoza", LastName: "Karimova", Email: "dilnoza@test.uz"}
		cp := ChangePassword{Code: "123456", Password: "karimova1A", PasswordConfirm: "karimova1A"}
		err := cp.Validate(validate, usr)
		require.Error(t, err)
		vErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		require.Len(t, vErrs, 1)
		assert.Equal(t, "new_password", vErrs[0].Field())
		assert.Equal(t, pwdAttrSimText, vErrs[0].Translate(translator))

		cp = ChangePassword{Code: "123456", Password: "Kv8#tr9Lm", PasswordConfirm: "Kv8#tr9Lm"}
		assert.NoError(t, cp.Validate(validate, usr))
	})
}
