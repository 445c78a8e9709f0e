package main

import (
	"context"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	if err := cli.usrSvc.ResetPassword(context.Background(), email, pwd); err != nil {
		return err
	}
	cli.printf("password updated\n")
	return nil
}
