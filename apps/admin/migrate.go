package main

import (
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	sqlxdb "github.com/enghaven/portal/storage/database/sqlx"
)

var gooseRunFunc = goose.Run // mockable

// migrate runs a goose command against SQL stores. Other engines have no schema.
func (cli *commandLine) migrate(args []string) error {
	sqlStore, ok := cli.db.Store().(*sqlxdb.DB)
	if !ok {
		return errors.Errorf("migrate: the %q store has no migrations", cli.conf.Store.Engine)
	}
	if err := sqlxdb.PrepareMigrations(sqlStore.Engine()); err != nil {
		return err
	}

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], sqlStore.SQL(), sqlxdb.MigrationsDir, arguments...)
}
