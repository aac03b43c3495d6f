package main

import (
	"context"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if _, err := cli.usrSvc.ResetPassword(ctx, usr, pwd); err != nil {
		return err
	}
	return nil
}
