package main

import (
	"log"
	"os"

	"github.com/tkamala/darasa/core"
	"github.com/tkamala/darasa/core/batch"
	emailsvc "github.com/tkamala/darasa/services/email"
	logsvc "github.com/tkamala/darasa/services/logger"
	"github.com/tkamala/darasa/storage/database"
	sqlxrepos "github.com/tkamala/darasa/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	ds, err := database.NewDatastore(conf)
	errAndDie(err)
	defer func() { _ = ds.Shutdown() }()

	// set up services
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)
	usrRepo := sqlxrepos.NewUserRepository(ds)
	crsRepo := sqlxrepos.NewCourseRepository(ds)
	grdRepo := sqlxrepos.NewGradeRepository(ds)
	batchSvc := batch.NewService(conf, appLogger, ds, usrRepo, crsRepo, grdRepo, emailsvc.NewConsoleService(conf))

	// start CLI
	cli := commandLine{
		conf:     conf,
		db:       ds.DB().DB,
		ds:       ds,
		usrRepo:  usrRepo,
		crsRepo:  crsRepo,
		batchSvc: batchSvc,
	}
	if err := cli.run(os.Args); err != nil {
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
