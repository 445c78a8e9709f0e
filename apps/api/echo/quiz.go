package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/quiz"
	"github.com/enghaven/portal/services/metrics"
)

type (
	QuizResponse struct {
		Quiz     quiz.PublicQuiz `json:"quiz"`
		Attempts int             `json:"attempts"`
	}

	SubmitResponse struct {
		Score  int         `json:"score"`
		Total  int         `json:"total"`
		Result quiz.Result `json:"result"`
		Next   string      `json:"next"`
	}
)

type quizApi struct {
	svc     *quiz.Service
	metrics *metrics.Metrics
}

func registerQuizAPI(e *echo.Echo, opts *Options) {
	api := quizApi{svc: opts.QuizSvc, metrics: opts.Metrics}

	g := e.Group("/quiz", authMiddleware)
	g.GET("/:id", api.get)
	g.POST("/:id/forfeit", api.forfeit)
	g.POST("/:id/submit", api.submit)
}

// bindAnswers reads the "q{i}" answers from a JSON object or from the form values.
func bindAnswers(ctx echo.Context) (map[string]string, error) {
	answers := make(map[string]string)

	req := ctx.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if req.ContentLength == 0 {
			return answers, nil
		}
		var raw map[string]interface{}
		if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
			return nil, core.NewValidationError(errors.Wrap(err, "invalid answers"))
		}
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				answers[k] = val
			case nil:
			default:
				answers[k] = fmt.Sprint(val)
			}
		}
		return answers, nil
	}

	params, err := ctx.FormParams()
	if err != nil {
		return nil, errors.Wrap(err, "reading answers")
	}
	for k := range params {
		answers[k] = params.Get(k)
	}
	return answers, nil
}

// Handlers

func (api *quizApi) get(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	qz, err := api.svc.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return errors.Wrap(err, "getting quiz")
	}

	attempts, err := api.svc.Attempts(reqCtx, qz.ID, getContextSession(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "counting attempts")
	}
	return ctx.JSON(http.StatusOK, QuizResponse{Quiz: qz.Public(), Attempts: attempts})
}

func (api *quizApi) forfeit(ctx echo.Context) error {
	if err := api.svc.RecordForfeit(ctx.Request().Context(), ctx.Param("id"), getContextSession(ctx).ID); err != nil {
		return errors.Wrap(err, "recording forfeit")
	}
	if api.metrics != nil {
		api.metrics.QuizForfeits.Inc()
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (api *quizApi) submit(ctx echo.Context) error {
	answers, err := bindAnswers(ctx)
	if err != nil {
		return err
	}

	res, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), getContextSession(ctx).ID, answers)
	if err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return errors.Wrap(err, "submitting quiz")
	}
	if api.metrics != nil {
		api.metrics.ObserveScore(res.Score, res.Total)
	}

	return ctx.JSON(http.StatusOK, SubmitResponse{
		Score:  res.Score,
		Total:  res.Total,
		Result: res,
		Next:   defaultNext,
	})
}
