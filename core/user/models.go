package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	Email        string    `json:"email" db:"email"`
	Photo        string    `json:"user_photo"`
	Degree       *int      `json:"degree"`
	PasswordHash []byte    `json:"-"`
	IsAdmin      bool      `json:"status"` // admin panel access
	DateJoined   time.Time `json:"date_joined"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) FullName() string {
	return core.CleanString(u.FirstName + " " + u.LastName)
}

// DegreeID returns the user's degree or 0 when the user has none.
func (u User) DegreeID() int {
	if u.Degree == nil {
		return 0
	}
	return *u.Degree
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	FirstName       string `json:"first_name" validate:"required,max=255"`
	LastName        string `json:"last_name" validate:"required,max=255"`
	PhoneNumber     string `json:"phone_number" validate:"required,phone"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Degree          int    `json:"degree" validate:"required,gt=0"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Photo           string `json:"-"`
	IsAdmin         bool   `json:"-"`
}

func (nu *NewUser) Clean() {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.PhoneNumber = core.NormalizePhone(nu.PhoneNumber)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}

// Validate cleans nu, then checks its fields, its degree and the uniqueness of its phone number and email.
func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	if err := svc.CheckDegree(ctx, nu.Degree); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.PhoneNumber, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	FirstName   string `json:"first_name" validate:"omitempty,max=255"`
	LastName    string `json:"last_name" validate:"omitempty,max=255"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Degree      *int   `json:"degree" validate:"omitempty,gt=0"`
}

// Clean fills empty fields from the original User.
func (uu *UpdateUser) Clean(orig User) {
	if name := core.CleanString(uu.FirstName); name != "" {
		uu.FirstName = name
	} else {
		uu.FirstName = orig.FirstName
	}
	if name := core.CleanString(uu.LastName); name != "" {
		uu.LastName = name
	} else {
		uu.LastName = orig.LastName
	}
	if phone := core.NormalizePhone(uu.PhoneNumber); phone != "" {
		uu.PhoneNumber = phone
	} else {
		uu.PhoneNumber = orig.PhoneNumber
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = orig.Email
	}
	if uu.Degree == nil {
		uu.Degree = orig.Degree
	}
}

func (uu *UpdateUser) Validate(ctx context.Context, orig User, validate *validator.Validate, svc Service) error {
	uu.Clean(orig)
	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Degree != nil && *uu.Degree != orig.DegreeID() {
		if err := svc.CheckDegree(ctx, *uu.Degree); err != nil {
			return err
		}
	}
	return svc.CheckUniqueness(ctx, uu.PhoneNumber, uu.Email, orig)
}

// ChangePassword is the payload of a password change confirmed with an emailed code.
type ChangePassword struct {
	Code            string `json:"confirmation_code" validate:"required,len=6,numeric"`
	Password        string `json:"new_password" validate:"required"`
	PasswordConfirm string `json:"new_password_confirmation" validate:"required,eqfield=Password"`

	attrs []string // checked for similarity with Password
}

func (cp *ChangePassword) Validate(validate *validator.Validate, usr User) error {
	cp.Code = core.CleanString(cp.Code)
	cp.attrs = []string{usr.FirstName, usr.LastName, usr.Email, usr.PhoneNumber}
	return validate.Struct(cp)
}

type GetFilter struct {
	ID    int
	Email string
	Phone string
}

type QueryFilter struct {
	ExcludeID int
	IsAdmin   *bool
}

func (u User) HasEmail() bool { return u.Email != "" }
