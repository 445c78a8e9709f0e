package echoapi

import (
	"bufio"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/enrollment"
	"github.com/enghaven/portal/core/quiz"
	"github.com/enghaven/portal/core/user"
)

const proofUnavailableMsg = "Proof not available on this platform. Configure Cloudinary in .env for durable uploads."

type (
	AdminEnrollment struct {
		enrollment.Enrollment
		PaymentStatus string `json:"paymentStatus"`
	}

	DashboardResponse struct {
		Users       []user.Profile     `json:"users"`
		Enrollments []AdminEnrollment  `json:"enrollments"`
		Batches     []enrollment.Batch `json:"batches"`
		Quizzes     []quiz.Quiz        `json:"quizzes"`
		Results     []quiz.Result      `json:"results"`
	}
)

type adminApi struct {
	userSvc       *user.Service
	enrollmentSvc *enrollment.Service
	quizSvc       *quiz.Service
	logger        core.Logger
}

func registerAdminAPI(e *echo.Echo, opts *Options) {
	api := adminApi{
		userSvc:       opts.UserSvc,
		enrollmentSvc: opts.EnrollmentSvc,
		quizSvc:       opts.QuizSvc,
		logger:        opts.Logger,
	}

	g := e.Group("", adminMiddleware)
	g.GET("/admin", api.dashboard)
	g.POST("/admin/batch/new", api.createBatch)
	g.POST("/admin/quiz/new", api.createQuiz)
	g.GET("/proof/:userId", api.proof)
}

// Handlers

func (api *adminApi) dashboard(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	users, err := api.userSvc.QueryAll(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing users")
	}
	enrollments, err := api.enrollmentSvc.QueryAll(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	batches, err := api.enrollmentSvc.ListBatches(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing batches")
	}
	quizzes, err := api.quizSvc.QueryAll(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing quizzes")
	}
	results, err := api.quizSvc.Results(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing results")
	}

	resp := DashboardResponse{
		Users:       make([]user.Profile, 0, len(users)),
		Enrollments: make([]AdminEnrollment, 0, len(enrollments)),
		Batches:     batches,
		Quizzes:     quizzes,
		Results:     results,
	}
	for i := range users {
		resp.Users = append(resp.Users, users[i].Profile())
	}
	for _, enr := range enrollments {
		resp.Enrollments = append(resp.Enrollments, AdminEnrollment{Enrollment: enr, PaymentStatus: api.enrollmentSvc.Status(enr)})
	}
	if resp.Batches == nil {
		resp.Batches = []enrollment.Batch{}
	}
	if resp.Quizzes == nil {
		resp.Quizzes = []quiz.Quiz{}
	}
	if resp.Results == nil {
		resp.Results = []quiz.Result{}
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (api *adminApi) createBatch(ctx echo.Context) error {
	var data enrollment.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}

	batch, err := api.enrollmentSvc.CreateBatch(ctx.Request().Context(), data)
	if err != nil {
		if core.IsValidation(err) {
			return err
		}
		return errors.Wrap(err, "creating batch")
	}
	return ctx.JSON(http.StatusCreated, batch)
}

func (api *adminApi) createQuiz(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}

	qz, err := api.quizSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		if core.IsValidation(err) {
			return err
		}
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *adminApi) proof(ctx echo.Context) error {
	rc, err := api.enrollmentSvc.GetProof(ctx.Request().Context(), ctx.Param("userId"))
	if err != nil {
		if core.IsStorage(err) {
			api.logger.Error("reading payment proof", err, getContextSession(ctx))
			return ctx.String(http.StatusOK, proofUnavailableMsg)
		}
		if core.IsNotFound(err) {
			return err
		}
		return errors.Wrap(err, "getting proof")
	}
	defer func() { _ = rc.Close() }()

	br := bufio.NewReader(rc)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		api.logger.Error("reading payment proof", core.NewStorageError("read proof", err), getContextSession(ctx))
		return ctx.String(http.StatusOK, proofUnavailableMsg)
	}
	return ctx.Stream(http.StatusOK, http.DetectContentType(head), br)
}
