package dig_container

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/enghaven/portal/apps/api/echo"
	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/attendance"
	"github.com/enghaven/portal/core/enrollment"
	"github.com/enghaven/portal/core/quiz"
	"github.com/enghaven/portal/core/user"
	emailsvc "github.com/enghaven/portal/services/email"
	logsvc "github.com/enghaven/portal/services/logger"
	"github.com/enghaven/portal/services/metrics"
	"github.com/enghaven/portal/storage/blob"
	"github.com/enghaven/portal/storage/database"
)

type DBLoggerParam struct {
	dig.In
	Logger *logsvc.RollbarLogger `name:"dbLogger"`
}

// ServerParams holds everything the API server needs.
type ServerParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	Validator     *core.Validator
	Metrics       *metrics.Metrics
	DB            *database.DB
	UserSvc       *user.Service
	EnrollmentSvc *enrollment.Service
	AttendanceSvc *attendance.Service
	QuizSvc       *quiz.Service
}

func newLogger(conf *core.Config) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func asCoreLogger(logger *logsvc.RollbarLogger) core.Logger {
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*database.DB, error) {
	db, err := database.Open(context.Background(), conf)
	if err != nil {
		return nil, errors.Wrap(err, "setting up database")
	}
	loggerParam.Logger.Info("document store ready: " + conf.Store.Engine)
	return db, nil
}

func newBlobStore(conf *core.Config) (core.BlobStore, error) {
	return blob.Open(conf.Blob)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	return emailsvc.NewService(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
}

func newQuestionsPolicy(conf *core.Config) quiz.QuestionsPolicy {
	return quiz.PolicyFor(conf.Quiz.StrictQuestions)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validator:     p.Validator,
		Metrics:       p.Metrics,
		Store:         p.DB,
		UserSvc:       p.UserSvc,
		EnrollmentSvc: p.EnrollmentSvc,
		AttendanceSvc: p.AttendanceSvc,
		QuizSvc:       p.QuizSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(asCoreLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newBlobStore))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewValidator))
	must(c.Provide(metrics.New))

	// repositories
	must(c.Provide(database.NewUserRepository))
	must(c.Provide(database.NewBatchRepository))
	must(c.Provide(database.NewEnrollmentRepository))
	must(c.Provide(database.NewAttendanceRepository))
	must(c.Provide(database.NewQuizRepository))
	must(c.Provide(database.NewResultRepository))

	// services
	must(c.Provide(newQuestionsPolicy))
	must(c.Provide(user.NewService))
	must(c.Provide(enrollment.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(quiz.NewService))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
