package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("quiz", "Quiz not found")
)

type (
	// Repository persists the "quizzes" collection.
	Repository interface {
		ListAll(ctx context.Context) ([]Quiz, error)
		Update(ctx context.Context, fn func([]Quiz) ([]Quiz, error)) error
	}

	// ResultRepository persists the "results" collection.
	ResultRepository interface {
		ListAll(ctx context.Context) ([]Result, error)
		Update(ctx context.Context, fn func([]Result) ([]Result, error)) error
	}

	Service struct {
		repo       Repository
		resultRepo ResultRepository
		policy     QuestionsPolicy
		logger     core.Logger
		now        func() time.Time
	}
)

func NewService(repo Repository, resultRepo ResultRepository, policy QuestionsPolicy, logger core.Logger) *Service {
	return &Service{
		repo:       repo,
		resultRepo: resultRepo,
		policy:     policy,
		logger:     logger,
		now:        core.NowFunc,
	}
}

// Create stores a new Quiz. The batch is not checked for existence.
func (svc *Service) Create(ctx context.Context, nq NewQuiz) (Quiz, error) {
	nq.Clean()
	questions, err := svc.policy.Apply(ParseQuestions(nq.Questions))
	if err != nil {
		return Quiz{}, err
	}

	qz := Quiz{
		ID:        uuid.NewString(),
		BatchID:   nq.BatchID,
		Title:     nq.Title,
		TimeLimit: parseInt(nq.TimeLimit, DefaultTimeLimit),
		MaxTries:  parseInt(nq.MaxTries, DefaultMaxTries),
		Questions: questions,
	}
	err = svc.repo.Update(ctx, func(quizzes []Quiz) ([]Quiz, error) {
		return append(quizzes, qz), nil
	})
	if err != nil {
		return Quiz{}, errors.Wrap(err, "saving quiz")
	}
	return qz, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Quiz, error) {
	quizzes, err := svc.repo.ListAll(ctx)
	return quizzes, errors.Wrap(err, "listing quizzes")
}

// ForBatch returns the quizzes of the batch, in creation order.
func (svc *Service) ForBatch(ctx context.Context, batchID string) ([]Quiz, error) {
	quizzes, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]Quiz, 0)
	for _, q := range quizzes {
		if q.BatchID == batchID {
			res = append(res, q)
		}
	}
	return res, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Quiz, error) {
	quizzes, err := svc.QueryAll(ctx)
	if err != nil {
		return Quiz{}, err
	}
	for _, q := range quizzes {
		if q.ID == id {
			return q, nil
		}
	}
	return Quiz{}, ErrNotFound
}

// RecordForfeit acknowledges that the student left the quiz page. Nothing is persisted.
func (svc *Service) RecordForfeit(_ context.Context, quizID, userID string) error {
	svc.logger.Debug("quiz forfeited", map[string]interface{}{"quizId": quizID, "userId": userID})
	return nil
}

// Submit scores the answers and records a Result.
// MaxTries and TimeLimit are not enforced.
func (svc *Service) Submit(ctx context.Context, quizID, userID string, answers map[string]string) (Result, error) {
	qz, err := svc.Get(ctx, quizID)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		ID:     uuid.NewString(),
		QuizID: qz.ID,
		UserID: userID,
		Score:  Score(qz.Questions, answers),
		Total:  len(qz.Questions),
		At:     svc.now(),
	}
	err = svc.resultRepo.Update(ctx, func(results []Result) ([]Result, error) {
		return append(results, res), nil
	})
	if err != nil {
		return Result{}, errors.Wrap(err, "saving result")
	}
	return res, nil
}

// Results returns every recorded Result.
func (svc *Service) Results(ctx context.Context) ([]Result, error) {
	results, err := svc.resultRepo.ListAll(ctx)
	return results, errors.Wrap(err, "listing results")
}

// Attempts counts the User's results for the quiz.
func (svc *Service) Attempts(ctx context.Context, quizID, userID string) (int, error) {
	counts, err := svc.AttemptsByQuiz(ctx, userID)
	if err != nil {
		return 0, err
	}
	return counts[quizID], nil
}

// AttemptsByQuiz counts the User's results per quiz ID.
func (svc *Service) AttemptsByQuiz(ctx context.Context, userID string) (map[string]int, error) {
	results, err := svc.Results(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range results {
		if r.UserID == userID {
			counts[r.QuizID]++
		}
	}
	return counts, nil
}
