package main

import (
	"github.com/pressly/goose/v3"

	"github.com/elimuhq/elimu/fs"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	var arguments []string
	if len(args) > 1 {
		arguments = args[1:]
	}
	return gooseRunFunc(args[0], cli.db.DB, "migrations", arguments...)
}
