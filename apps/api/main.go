package main

import (
	"context"
	"log"
	"os"

	echoapi "github.com/prajin1910/eval/apps/api/echo"
	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/chat"
	"github.com/prajin1910/eval/core/task"
	"github.com/prajin1910/eval/core/user"
	emailsvc "github.com/prajin1910/eval/services/email"
	logsvc "github.com/prajin1910/eval/services/logger"
	pushsvc "github.com/prajin1910/eval/services/push"
	"github.com/prajin1910/eval/storage/database"
	inmemdb "github.com/prajin1910/eval/storage/database/inmem"
	sqlxrepos "github.com/prajin1910/eval/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.Conf

	var logger core.Logger
	if conf.RollbarToken != "" && !conf.Debug {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = core.NewStdLogger(std, conf)
	}

	// set up storage
	var (
		usrRepo  user.Repository
		taskRepo task.Repository
		chatRepo chat.Repository
	)
	if conf.Debug || conf.TestMode {
		db, err := inmemdb.Open()
		errAndDie(err)
		usrRepo = inmemdb.NewUserRepository(db)
		taskRepo = inmemdb.NewTaskRepository(db)
		chatRepo = inmemdb.NewChatRepository(db)
	} else {
		db, err := database.Open(conf)
		errAndDie(err)
		defer func() { _ = db.Close() }()
		errAndDie(database.Ping(db))
		usrRepo = sqlxrepos.NewUserRepository(db)
		taskRepo = sqlxrepos.NewTaskRepository(db)
		chatRepo = sqlxrepos.NewChatRepository(db)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	hub := pushsvc.NewHub(logger)
	defer hub.Shutdown()

	usrSvc := user.NewService(usrRepo, mailSvc)
	taskSvc := task.NewService(taskRepo)
	chatSvc := chat.NewService(chatRepo, usrSvc, hub, logger)

	// start the reminder scheduler
	notifier := task.NewNotifier(mailSvc, hub, logger)
	scheduler := task.NewScheduler(taskRepo, usrSvc, notifier, logger, conf.Reminder)
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	// start API server
	validate, trans := core.NewValidator()
	app := echoapi.NewServer(&echoapi.Options{
		Address:    conf.Server.Address(),
		UserSvc:    usrSvc,
		TaskSvc:    taskSvc,
		ChatSvc:    chatSvc,
		Hub:        hub,
		Validate:   validate,
		Translator: trans,
	})
	app.Start()
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
