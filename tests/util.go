package testutil

import (
	"context"
	"io"
	"log"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/user"
	"github.com/enghaven/portal/services/logger"
	"github.com/enghaven/portal/storage/database"
	"github.com/enghaven/portal/storage/database/inmem"
)

func init() {
	user.HashCost = bcrypt.MinCost
}

// PrepareDB returns an empty in-memory DB.
func PrepareDB(t *testing.T) *database.DB {
	t.Helper()
	db := database.NewDB(inmemdb.Open())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewLogger returns a logger that discards its output and never reports to Rollbar.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{Env: "TEST", Debug: true})
}

func CreateUser(t *testing.T, repo user.Repository, name, email, pwd, role string) user.User {
	t.Helper()
	usr := user.User{
		ID:    name + "-" + email,
		Name:  name,
		Email: email,
		Role:  role,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	err := repo.Update(context.Background(), func(users []user.User) ([]user.User, error) {
		return append(users, usr), nil
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}
