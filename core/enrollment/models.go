package enrollment

import (
	"io"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/enghaven/portal/core"
)

// CourseID is the only course on offer.
const CourseID = "english-language"

// Payment statuses
const (
	StatusPaid    = "Paid"
	StatusPending = "Pending"
)

// PaymentPeriod is how long a payment keeps an enrollment "Paid".
const PaymentPeriod = 30 * 24 * time.Hour

// Batch is a cohort of students sharing a time slot.
type Batch struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TimeSlot string `json:"timeSlot"`
}

type NewBatch struct {
	Name     string `json:"name" form:"name" validate:"required"`
	TimeSlot string `json:"timeSlot" form:"timeSlot" validate:"required"`
}

func (nb *NewBatch) Clean() {
	nb.Name = core.CleanString(nb.Name)
	nb.TimeSlot = core.CleanString(nb.TimeSlot)
}

type Payment struct {
	Method     string      `json:"method"`
	Proof      null.String `json:"proof"` // blob reference
	LastPaidAt time.Time   `json:"lastPaidAt"`
}

// Enrollment links a User to a Batch. There is at most one per User.
type Enrollment struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	CourseID string  `json:"courseId"`
	BatchID  string  `json:"batchId"`
	Timing   string  `json:"timing"`
	Payment  Payment `json:"payment"`
}

// PaymentStatus is "Paid" if the last payment is at most PaymentPeriod old, "Pending" otherwise.
func PaymentStatus(e Enrollment, now time.Time) string {
	if now.Sub(e.Payment.LastPaidAt) <= PaymentPeriod {
		return StatusPaid
	}
	return StatusPending
}

type NewEnrollment struct {
	BatchID string `json:"batchId" form:"batchId" validate:"required"`
	Timing  string `json:"timing" form:"timing" validate:"required"`
	Method  string `json:"method" form:"method" validate:"required"`
}

func (ne *NewEnrollment) Clean() {
	ne.BatchID = core.CleanString(ne.BatchID)
	ne.Timing = core.CleanString(ne.Timing)
	ne.Method = core.CleanString(ne.Method)
}

// Proof is an uploaded payment proof.
type Proof struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}
