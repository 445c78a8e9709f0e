package database

import (
	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/attendance"
	"github.com/enghaven/portal/core/enrollment"
	"github.com/enghaven/portal/core/quiz"
	"github.com/enghaven/portal/core/user"
)

func NewUserRepository(db *DB) user.Repository {
	return NewCollection[user.User](db, core.CollectionUsers)
}

func NewBatchRepository(db *DB) enrollment.BatchRepository {
	return NewCollection[enrollment.Batch](db, core.CollectionBatches)
}

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return NewCollection[enrollment.Enrollment](db, core.CollectionEnrollments)
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return NewCollection[attendance.Attendance](db, core.CollectionAttendance)
}

func NewQuizRepository(db *DB) quiz.Repository {
	return NewCollection[quiz.Quiz](db, core.CollectionQuizzes)
}

func NewResultRepository(db *DB) quiz.ResultRepository {
	return NewCollection[quiz.Result](db, core.CollectionResults)
}
