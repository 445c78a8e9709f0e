package main

import (
	"context"
)

func (cli *commandLine) seedAdmin() error {
	created, err := cli.usrSvc.EnsureAdminSeed(context.Background(), cli.conf.Admin.Email, cli.conf.Admin.Password)
	if err != nil {
		return err
	}
	if created {
		cli.printf("admin %s created\n", cli.conf.Admin.Email)
	} else {
		cli.printf("admin %s already exists\n", cli.conf.Admin.Email)
	}
	return nil
}
