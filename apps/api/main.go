package main

import (
	"log"
	"os"

	"github.com/elimuhq/elimu/apps/api/echo"
	"github.com/elimuhq/elimu/core"
	"github.com/elimuhq/elimu/core/course"
	"github.com/elimuhq/elimu/core/user"
	"github.com/elimuhq/elimu/services/email"
	"github.com/elimuhq/elimu/services/logger"
	"github.com/elimuhq/elimu/storage/database"
	"github.com/elimuhq/elimu/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatalf("%+v", err)
	}
	logger := logsvc.NewRollbarLogger(std, conf)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	if err = database.Ping(db); err != nil {
		logger.Fatal("waiting for database", err)
	}
	if err = database.Migrate(db); err != nil {
		logger.Fatal("running migrations", err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	userRepo := sqlxrepos.NewUserRepository(db)
	otpRepo := sqlxrepos.NewOTPRepository(db)
	courseRepo := sqlxrepos.NewCourseRepository(db)

	server := echoapi.NewServer(&echoapi.Options{
		Addr:      conf.Server.Address(),
		Conf:      conf,
		Logger:    logger,
		UserSvc:   user.NewService(userRepo, otpRepo, mailSvc, conf),
		CourseSvc: course.NewService(courseRepo),
	})
	server.Start()
}
