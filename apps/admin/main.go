package main

import (
	"context"
	"log"
	"os"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/user"
	"github.com/enghaven/portal/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	// set up DB
	db, err := database.Open(context.Background(), conf)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		conf:   conf,
		db:     db,
		usrSvc: user.NewService(database.NewUserRepository(db), core.NewValidator()),
	}
	err = cli.run(os.Args)
	if cErr := db.Close(); cErr != nil {
		logger.Printf("closing database: %s", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
