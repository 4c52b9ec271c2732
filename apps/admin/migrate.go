package main

import (
	"github.com/edukit/eduhub/storage/database"
)

var migrateRunFunc = database.RunMigrationCommand // mockable

func (cli *commandLine) migrate(args []string) error {
	return migrateRunFunc(cli.db, args[0], args[1:]...)
}
