package user

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/examprep/core"
)

func Test_checkPasswordPolicy(t *testing.T) {
	commonPasswords = []string{"password1!", "qwerty123$"}

	tests := []struct {
		name  string
		pwd   string
		uname string
		email string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Has space 1A!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "12345678", want: pwdNotAllNumTag},
		{name: "no special char", pwd: "Abcdefgh1", want: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefgh1!", want: pwdComplexityTag},
		{name: "similar to username", pwd: "Awesomeuser1!", uname: "awesomeuser", want: pwdAttrSimTag},
		{name: "similar to email", pwd: "Awe@test.cd1", email: "awe@test.cd", want: pwdAttrSimTag},
		{name: "common", pwd: "Password1!", uname: "bob", want: pwdNoCommonTag},
		{name: "valid", pwd: "Str0ng!Pass#", uname: "bob", email: "bob@test.cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPasswordPolicy(tt.pwd, "Bob", tt.uname, tt.email))
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	commonPasswords = nil
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	tests := []struct {
		name     string
		data     NewUser
		wantFlds map[string]string
	}{
		{
			name: "missing fields",
			data: NewUser{},
			wantFlds: map[string]string{
				"name":             "this field is required",
				"password":         "this field is required",
				"password_confirm": "this field is required",
				"username":         usernameOrEmailText,
				"email":            usernameOrEmailText,
			},
		},
		{
			name: "no username nor email",
			data: NewUser{Name: "Bob", Password: "Str0ng!Pass#", PasswordConfirm: "Str0ng!Pass#"},
			wantFlds: map[string]string{
				"username": usernameOrEmailText,
				"email":    usernameOrEmailText,
			},
		},
		{
			name:     "bad roles",
			data:     NewUser{Name: "Bob", Username: "bobby", Password: "Str0ng!Pass#", PasswordConfirm: "Str0ng!Pass#", Roles: []string{"lol:"}},
			wantFlds: map[string]string{"roles": allRolesText},
		},
		{
			name:     "weak password",
			data:     NewUser{Name: "Bob", Username: "bobby", Password: "weak", PasswordConfirm: "weak"},
			wantFlds: map[string]string{"password": pwdMinLenText},
		},
		{
			name:     "username chars",
			data:     NewUser{Name: "Bob", Username: "bob-by", Password: "Str0ng!Pass#", PasswordConfirm: "Str0ng!Pass#"},
			wantFlds: map[string]string{"username": "only alphanumeric characters and underscores are allowed"},
		},
		{
			name: "valid",
			data: NewUser{Name: " Bob ", Username: " BOBBY ", Email: "Bob@Test.cd", Password: "Str0ng!Pass#", PasswordConfirm: "Str0ng!Pass#"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(context.Background(), validate, noopChecker{})
			if tt.wantFlds == nil {
				assert.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !assert.True(t, ok, "want validator.ValidationErrors, got %v", err) {
				return
			}
			got := make(map[string]string, len(vErrs))
			for _, e := range vErrs {
				got[e.Field()] = e.Translate(translator)
			}
			assert.Equal(t, tt.wantFlds, got)
		})
	}
}

type noopChecker struct{}

func (noopChecker) CheckUniqueness(_ context.Context, _, _ string, _ ...User) error { return nil }
