package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

// addUser creates a user.User, or updates the password and admin flag of the one holding nu.Email.
// Administrators may be created without a degree.
func (cli *commandLine) addUser(nu user.NewUser) (user.User, error) {
	ctx := context.Background()

	usr, err := cli.usrSvc.GetByEmail(ctx, nu.Email)
	switch {
	case err == nil:
		if nu.IsAdmin && !usr.IsAdmin {
			if usr, err = cli.usrSvc.SetAdmin(ctx, usr, true); err != nil {
				return user.User{}, errors.Wrap(err, "granting admin access")
			}
		}
		if usr, err = cli.usrSvc.ResetPassword(ctx, usr, nu.Password); err != nil {
			return user.User{}, errors.Wrap(err, "resetting password")
		}
		fmt.Fprintf(cli.out, "user %d updated\n", usr.ID)
		return usr, nil
	case errors.Cause(err) != user.ErrNotFound:
		return user.User{}, errors.Wrap(err, "getting user")
	}

	nu.PasswordConfirm = nu.Password
	if nu.IsAdmin && nu.Degree == 0 {
		nu.Clean()
		if err = cli.validate.StructExcept(nu, "Degree"); err != nil {
			return user.User{}, err
		}
		if err = cli.usrSvc.CheckUniqueness(ctx, nu.PhoneNumber, nu.Email); err != nil {
			return user.User{}, err
		}
	} else if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return user.User{}, err
	}

	if usr, err = cli.usrSvc.Create(ctx, nu); err != nil {
		return user.User{}, err
	}
	fmt.Fprintf(cli.out, "user %d created\n", usr.ID)
	return usr, nil
}
