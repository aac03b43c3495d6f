package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrPhoneExists        = errors.New("a user with this phone number already exists")
	ErrDegreeNotFound     = errors.New("degree not found")
	ErrInvalidCredentials = errors.New("email or password incorrect")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrPhoneExists or ErrEmailExists when another user (id != excludeID) holds them.
		CheckUniqueness(ctx context.Context, phone, email string, excludeID int) error
		DegreeExists(ctx context.Context, id int) (bool, error)
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, phone, email string, excludedUsers ...User) error
		CheckDegree(ctx context.Context, id int) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Exists(ctx context.Context, id int) (bool, error)
		Query(ctx context.Context, filter QueryFilter) ([]User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		SetPhoto(ctx context.Context, usr User, photo string) (User, error)
		SetAdmin(ctx context.Context, usr User, isAdmin bool) (User, error)
		RequestPasswordCode(ctx context.Context, usr User) error
		ChangePassword(ctx context.Context, usr User, data ChangePassword) (User, error)
		ResetPassword(ctx context.Context, usr User, pwd string) (User, error)
	}

	service struct {
		repo        Repository
		mailSvc     core.EmailService
		codeGen     codeGenerator
		codeTimeout time.Duration
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:        repo,
		mailSvc:     mailSvc,
		codeGen:     newCodeGenerator(conf.SecretKey, conf.PasswordCodeTimeout),
		codeTimeout: conf.PasswordCodeTimeout,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, phone, email string, excludedUsers ...User) error {
	var excludeID int
	if len(excludedUsers) > 0 {
		excludeID = excludedUsers[0].ID
	}
	if err := svc.repo.CheckUniqueness(ctx, phone, email, excludeID); err != nil {
		var field string
		switch err {
		case ErrPhoneExists:
			field = "phone_number"
		case ErrEmailExists:
			field = "email"
		default:
			return errors.Wrap(err, "checking uniqueness")
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) CheckDegree(ctx context.Context, id int) error {
	exists, err := svc.repo.DegreeExists(ctx, id)
	if err != nil {
		return errors.Wrap(err, "checking degree")
	}
	if !exists {
		return core.NewValidationError(ErrDegreeNotFound, core.FieldError{Field: "degree", Error: ErrDegreeNotFound.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		PhoneNumber: nu.PhoneNumber,
		Email:       nu.Email,
		Photo:       nu.Photo,
		IsAdmin:     nu.IsAdmin,
		DateJoined:  time.Now().UTC(),
	}
	if nu.Degree > 0 {
		degree := nu.Degree
		usr.Degree = &degree
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Exists(ctx context.Context, id int) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	if _, err := svc.GetByID(ctx, id); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter)
}

// Update expects uu to be validated (and cleaned against usr).
func (svc *service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr.FirstName = uu.FirstName
	usr.LastName = uu.LastName
	usr.PhoneNumber = uu.PhoneNumber
	usr.Email = uu.Email
	usr.Degree = uu.Degree
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPhoto(ctx context.Context, usr User, photo string) (User, error) {
	usr.Photo = photo
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetAdmin(ctx context.Context, usr User, isAdmin bool) (User, error) {
	usr.IsAdmin = isAdmin
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) RequestPasswordCode(_ context.Context, usr User) error {
	if !usr.HasEmail() {
		return core.NewFieldValidationError("email", "this user has no email address")
	}
	svc.sendPasswordCodeMail(usr, svc.codeGen.makeCode(usr))
	return nil
}

// ChangePassword expects data to be validated.
func (svc *service) ChangePassword(ctx context.Context, usr User, data ChangePassword) (User, error) {
	if err := svc.codeGen.verifyCode(usr, data.Code); err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "confirmation_code", Error: err.Error()})
	}
	return svc.ResetPassword(ctx, usr, data.Password)
}

func (svc *service) ResetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) sendWelcomeMail(usr User) {
	if !usr.HasEmail() {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{
			"Name":  usr.FullName(),
			"Email": usr.Email,
		},
	})
}

func (svc *service) sendPasswordCodeMail(usr User, code string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Password change code",
		TemplateName: "password_code",
		TemplateData: map[string]interface{}{
			"Name":     usr.FullName(),
			"Code":     code,
			"ValidFor": fmt.Sprintf("%d minutes", int(svc.codeTimeout/time.Minute)),
		},
	})
}
