package enrollment

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("enrollment", "enrollment not found")
	ErrProofNotFound = core.NewNotFoundError("proof", "No proof uploaded")
)

type (
	// Repository persists the "enrollments" collection.
	Repository interface {
		ListAll(ctx context.Context) ([]Enrollment, error)
		Update(ctx context.Context, fn func([]Enrollment) ([]Enrollment, error)) error
	}

	// BatchRepository persists the "batches" collection.
	BatchRepository interface {
		ListAll(ctx context.Context) ([]Batch, error)
		Update(ctx context.Context, fn func([]Batch) ([]Batch, error)) error
	}

	Service struct {
		repo      Repository
		batchRepo BatchRepository
		blobs     core.BlobStore
		mailSvc   core.EmailService
		logger    core.Logger
		validate  *core.Validator
		now       func() time.Time
	}
)

func NewService(
	repo Repository,
	batchRepo BatchRepository,
	blobs core.BlobStore,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *core.Validator,
) *Service {
	return &Service{
		repo:      repo,
		batchRepo: batchRepo,
		blobs:     blobs,
		mailSvc:   mailSvc,
		logger:    logger,
		validate:  validate,
		now:       core.NowFunc,
	}
}

func (svc *Service) ListBatches(ctx context.Context) ([]Batch, error) {
	batches, err := svc.batchRepo.ListAll(ctx)
	return batches, errors.Wrap(err, "listing batches")
}

func (svc *Service) GetBatch(ctx context.Context, id string) (Batch, bool, error) {
	batches, err := svc.ListBatches(ctx)
	if err != nil {
		return Batch{}, false, err
	}
	for _, b := range batches {
		if b.ID == id {
			return b, true, nil
		}
	}
	return Batch{}, false, nil
}

func (svc *Service) CreateBatch(ctx context.Context, nb NewBatch) (Batch, error) {
	nb.Clean()
	if err := svc.validate.Struct(nb); err != nil {
		return Batch{}, err
	}

	batch := Batch{ID: uuid.NewString(), Name: nb.Name, TimeSlot: nb.TimeSlot}
	err := svc.batchRepo.Update(ctx, func(batches []Batch) ([]Batch, error) {
		return append(batches, batch), nil
	})
	if err != nil {
		return Batch{}, errors.Wrap(err, "saving batch")
	}
	return batch, nil
}

// Enroll records the student's enrollment or renews its payment.
// An existing enrollment only gets its payment replaced: batch and timing stay as first chosen.
// The batch is not checked for existence.
func (svc *Service) Enroll(ctx context.Context, student *user.Session, ne NewEnrollment, proof *Proof) (Enrollment, error) {
	if err := user.RequireAuthenticated(student); err != nil {
		return Enrollment{}, err
	}
	ne.Clean()
	if err := svc.validate.Struct(ne); err != nil {
		return Enrollment{}, err
	}

	payment := Payment{
		Method:     ne.Method,
		Proof:      svc.storeProof(ctx, student, proof),
		LastPaidAt: svc.now(),
	}

	var enr Enrollment
	var renewed bool
	err := svc.repo.Update(ctx, func(enrollments []Enrollment) ([]Enrollment, error) {
		for i := range enrollments {
			if enrollments[i].UserID == student.ID {
				enrollments[i].Payment = payment
				enr, renewed = enrollments[i], true
				return enrollments, nil
			}
		}
		enr = Enrollment{
			ID:       uuid.NewString(),
			UserID:   student.ID,
			CourseID: CourseID,
			BatchID:  ne.BatchID,
			Timing:   ne.Timing,
			Payment:  payment,
		}
		return append(enrollments, enr), nil
	})
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "saving enrollment")
	}

	svc.sendConfirmation(ctx, student, enr, renewed)
	return enr, nil
}

// storeProof writes the proof to the blob store. Failures are logged and yield a null proof.
func (svc *Service) storeProof(ctx context.Context, student *user.Session, proof *Proof) null.String {
	if proof == nil || proof.Reader == nil {
		return null.String{}
	}
	ref, err := svc.blobs.Put(ctx, proof.Filename, proof.ContentType, proof.Reader)
	if err != nil {
		svc.logger.Error("storing payment proof", core.NewStorageError("put proof", err), student)
		return null.String{}
	}
	return null.StringFrom(ref)
}

func (svc *Service) sendConfirmation(ctx context.Context, student *user.Session, enr Enrollment, renewed bool) {
	if svc.mailSvc == nil || student.Email == "" {
		return
	}

	batchName := enr.BatchID
	if b, ok, err := svc.GetBatch(ctx, enr.BatchID); err == nil && ok {
		batchName = b.Name
	}

	subject := "Enrollment confirmed"
	intro := "your enrollment is confirmed."
	if renewed {
		subject = "Payment received"
		intro = "we received your payment."
	}
	body := fmt.Sprintf(
		"Hi %s,\n\n%s\n\nBatch: %s\nTiming: %s\nPayment method: %s\nValid until: %s\n",
		student.Name, intro, batchName, enr.Timing, enr.Payment.Method,
		enr.Payment.LastPaidAt.Add(PaymentPeriod).Format("2 Jan 2006"),
	)

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: subject,
		Body:    body,
	})
}

// GetForUser returns the User's enrollment.
func (svc *Service) GetForUser(ctx context.Context, userID string) (Enrollment, error) {
	enrollments, err := svc.QueryAll(ctx)
	if err != nil {
		return Enrollment{}, err
	}
	for _, e := range enrollments {
		if e.UserID == userID {
			return e, nil
		}
	}
	return Enrollment{}, ErrNotFound
}

func (svc *Service) QueryAll(ctx context.Context) ([]Enrollment, error) {
	enrollments, err := svc.repo.ListAll(ctx)
	return enrollments, errors.Wrap(err, "listing enrollments")
}

// GetProof opens the payment proof of the User's enrollment.
// The caller must close the returned reader.
func (svc *Service) GetProof(ctx context.Context, userID string) (io.ReadCloser, error) {
	enr, err := svc.GetForUser(ctx, userID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrProofNotFound
		}
		return nil, err
	}
	if !enr.Payment.Proof.Valid || enr.Payment.Proof.String == "" {
		return nil, ErrProofNotFound
	}

	rc, err := svc.blobs.Get(ctx, enr.Payment.Proof.String)
	if err != nil {
		return nil, core.NewStorageError("get proof", err)
	}
	return rc, nil
}

// Status is the PaymentStatus of e at the service's current time.
func (svc *Service) Status(e Enrollment) string {
	return PaymentStatus(e, svc.now())
}
