package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/attendance"
	"github.com/enghaven/portal/core/enrollment"
	"github.com/enghaven/portal/core/quiz"
	"github.com/enghaven/portal/services/metrics"
)

type (
	EnrollmentResponse struct {
		Enrollment    enrollment.Enrollment `json:"enrollment"`
		PaymentStatus string                `json:"paymentStatus"`
		Next          string                `json:"next,omitempty"`
	}

	// PortalQuiz is a batch quiz as shown on the portal: no answers, with the user's attempt count.
	PortalQuiz struct {
		quiz.PublicQuiz
		Attempts int `json:"attempts"`
	}

	PortalResponse struct {
		User                  interface{}            `json:"user"`
		Enrolled              bool                   `json:"enrolled"`
		Enrollment            *enrollment.Enrollment `json:"enrollment,omitempty"`
		Batch                 *enrollment.Batch      `json:"batch,omitempty"`
		PaymentStatus         string                 `json:"paymentStatus,omitempty"`
		Quizzes               []PortalQuiz           `json:"quizzes"`
		AttendanceMarkedToday bool                   `json:"attendanceMarkedToday"`
	}
)

type enrollmentApi struct {
	svc           *enrollment.Service
	attendanceSvc *attendance.Service
	quizSvc       *quiz.Service
	metrics       *metrics.Metrics
}

func registerEnrollmentAPI(e *echo.Echo, opts *Options) {
	api := enrollmentApi{
		svc:           opts.EnrollmentSvc,
		attendanceSvc: opts.AttendanceSvc,
		quizSvc:       opts.QuizSvc,
		metrics:       opts.Metrics,
	}

	g := e.Group("", authMiddleware)
	g.GET("/enroll", api.enrollForm)
	g.POST("/enroll", api.enroll, middleware.BodyLimit(strconv.Itoa(maxProofSize+(1<<20))))
	g.GET("/portal", api.portal)
	g.POST("/attendance/mark", api.markAttendance)
}

// Handlers

func (api *enrollmentApi) enrollForm(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	batches, err := api.svc.ListBatches(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing batches")
	}

	resp := echo.Map{"batches": batches, "enrollment": nil}
	enr, err := api.svc.GetForUser(reqCtx, getContextSession(ctx).ID)
	switch {
	case err == nil:
		resp["enrollment"] = EnrollmentResponse{Enrollment: enr, PaymentStatus: api.svc.Status(enr)}
	case err != enrollment.ErrNotFound:
		return errors.Wrap(err, "getting enrollment")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}

	var proof *enrollment.Proof
	fh, err := ctx.FormFile("proof")
	switch {
	case err == nil && fh.Size > 0:
		if fh.Size > maxProofSize {
			return core.NewValidationError(nil, core.FieldError{Field: "proof", Error: "file too large (max 5MB)"})
		}
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening proof")
		}
		defer func() { _ = f.Close() }()
		proof = &enrollment.Proof{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Reader:      f,
		}
	case err != nil && err != http.ErrMissingFile && err != http.ErrNotMultipart:
		return errors.Wrap(err, "reading proof")
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), getContextSession(ctx), data, proof)
	if err != nil {
		if core.IsValidation(err) {
			return err
		}
		return errors.Wrap(err, "enrolling")
	}
	if api.metrics != nil {
		api.metrics.Enrollments.WithLabelValues(strconv.FormatBool(enr.Payment.Proof.Valid)).Inc()
	}

	return ctx.JSON(http.StatusOK, EnrollmentResponse{
		Enrollment:    enr,
		PaymentStatus: api.svc.Status(enr),
		Next:          defaultNext,
	})
}

func (api *enrollmentApi) portal(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess := getContextSession(ctx)

	resp := PortalResponse{User: sess, Quizzes: make([]PortalQuiz, 0)}

	marked, err := api.attendanceSvc.HasMarkedToday(reqCtx, sess.ID)
	if err != nil {
		return errors.Wrap(err, "checking attendance")
	}
	resp.AttendanceMarkedToday = marked

	enr, err := api.svc.GetForUser(reqCtx, sess.ID)
	if err != nil {
		if err == enrollment.ErrNotFound {
			return ctx.JSON(http.StatusOK, resp)
		}
		return errors.Wrap(err, "getting enrollment")
	}
	resp.Enrolled = true
	resp.Enrollment = &enr
	resp.PaymentStatus = api.svc.Status(enr)

	// the batch may have been removed from the store
	if batch, ok, err := api.svc.GetBatch(reqCtx, enr.BatchID); err != nil {
		return errors.Wrap(err, "getting batch")
	} else if ok {
		resp.Batch = &batch
	}

	quizzes, err := api.quizSvc.ForBatch(reqCtx, enr.BatchID)
	if err != nil {
		return errors.Wrap(err, "listing batch quizzes")
	}
	attempts, err := api.quizSvc.AttemptsByQuiz(reqCtx, sess.ID)
	if err != nil {
		return errors.Wrap(err, "counting attempts")
	}
	for _, q := range quizzes {
		resp.Quizzes = append(resp.Quizzes, PortalQuiz{PublicQuiz: q.Public(), Attempts: attempts[q.ID]})
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (api *enrollmentApi) markAttendance(ctx echo.Context) error {
	created, err := api.attendanceSvc.MarkToday(ctx.Request().Context(), getContextSession(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	if api.metrics != nil {
		api.metrics.AttendanceMarks.WithLabelValues(strconv.FormatBool(created)).Inc()
	}
	return ctx.JSON(http.StatusOK, echo.Map{"created": created, "next": defaultNext})
}
