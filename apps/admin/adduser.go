package main

import (
	"context"

	"github.com/enghaven/portal/core/user"
)

// addUser creates a user.User with the given role.
func (cli *commandLine) addUser(name, email, phone, pwd string, isAdmin bool) error {
	role := user.RoleStudent
	if isAdmin {
		role = user.RoleAdmin
	}
	usr, err := cli.usrSvc.CreateUser(context.Background(), user.NewUser{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Password: pwd,
	}, role)
	if err != nil {
		return err
	}
	cli.printf("user %s created (%s)\n", usr.Email, usr.Role)
	return nil
}
