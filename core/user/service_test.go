package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/user"
	"github.com/enghaven/portal/storage/database"
	"github.com/enghaven/portal/tests"
)

func setup(t *testing.T) (*user.Service, user.Repository) {
	repo := database.NewUserRepository(testutil.PrepareDB(t))
	return user.NewService(repo, core.NewValidator()), repo
}

func TestService_SignUp(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	testutil.CreateUser(t, repo, "Sana", "sana@test.pk", "pwd", user.RoleStudent)

	tests := []struct {
		name       string
		nu         user.NewUser
		wantFields []string
		wantErr    error
	}{
		{name: "missing all", nu: user.NewUser{}, wantFields: []string{"name", "email", "password"}},
		{name: "blank name", nu: user.NewUser{Name: "   ", Email: "a@test.pk", Password: "pwd"}, wantFields: []string{"name"}},
		{name: "missing password", nu: user.NewUser{Name: "Ali", Email: "a@test.pk"}, wantFields: []string{"password"}},
		{name: "duplicate email", nu: user.NewUser{Name: "Sana 2", Email: " sana@test.pk ", Password: "pwd"}, wantErr: user.ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.SignUp(ctx, tt.nu)
			assert.Nil(t, sess)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.True(t, core.IsConflict(err))
				return
			}
			require.True(t, core.IsValidation(err), "got %v", err)
			vErr := err.(*core.ValidationError)
			fields := make([]string, 0, len(vErr.Fields))
			for _, f := range vErr.Fields {
				fields = append(fields, f.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}

	t.Run("success", func(t *testing.T) {
		sess, err := svc.SignUp(ctx, user.NewUser{Name: " Ali ", Email: "Ali@Test.pk", Phone: "0300", Password: " secret "})
		require.NoError(t, err)
		assert.Equal(t, "Ali", sess.Name)
		assert.Equal(t, "Ali@Test.pk", sess.Email)
		assert.Equal(t, user.RoleStudent, sess.Role)
		assert.NotEmpty(t, sess.ID)

		usr, err := svc.GetByID(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "0300", usr.Phone)
		assert.NotEqual(t, " secret ", usr.PasswordHash)
		assert.NoError(t, usr.CheckPassword(" secret "), "passwords are not trimmed")
		assert.Error(t, usr.CheckPassword("secret"))
	})

	t.Run("emails are case-sensitive", func(t *testing.T) {
		_, err := svc.SignUp(ctx, user.NewUser{Name: "Sana", Email: "SANA@test.pk", Password: "pwd"})
		assert.NoError(t, err)
	})

	users, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestService_LogIn(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	usr := testutil.CreateUser(t, repo, "Sana", "sana@test.pk", "s3cret", user.RoleStudent)

	tests := []struct {
		name  string
		email string
		pwd   string
	}{
		{name: "unknown email", email: "nobody@test.pk", pwd: "s3cret"},
		{name: "wrong password", email: "sana@test.pk", pwd: "wrong"},
		{name: "other case email", email: "SANA@test.pk", pwd: "s3cret"},
		{name: "empty", email: "", pwd: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.LogIn(ctx, tt.email, tt.pwd)
			assert.Nil(t, sess)
			assert.Equal(t, user.ErrInvalidCredentials, err)
			assert.Equal(t, "invalid credentials", err.Error())
			assert.True(t, core.IsAuth(err))
		})
	}

	t.Run("success", func(t *testing.T) {
		sess, err := svc.LogIn(ctx, " sana@test.pk ", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, user.NewSession(usr), sess)
	})
}

func TestService_EnsureAdminSeed(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	created, err := svc.EnsureAdminSeed(ctx, "admin@englishhaven.com", "enghaven(f)")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdminSeed(ctx, "admin@englishhaven.com", "other")
	require.NoError(t, err)
	assert.False(t, created)

	users, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Admin", users[0].Name)
	assert.Equal(t, user.RoleAdmin, users[0].Role)
	assert.True(t, users[0].IsAdmin())

	sess, err := svc.LogIn(ctx, "admin@englishhaven.com", "enghaven(f)")
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin())
}

func TestService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	testutil.CreateUser(t, repo, "Sana", "sana@test.pk", "old", user.RoleStudent)

	assert.True(t, core.IsValidation(svc.ResetPassword(ctx, "sana@test.pk", "")))
	assert.Equal(t, user.ErrNotFound, svc.ResetPassword(ctx, "nobody@test.pk", "new"))

	require.NoError(t, svc.ResetPassword(ctx, "sana@test.pk", "new"))
	_, err := svc.LogIn(ctx, "sana@test.pk", "old")
	assert.Equal(t, user.ErrInvalidCredentials, err)
	_, err = svc.LogIn(ctx, "sana@test.pk", "new")
	assert.NoError(t, err)
}

func TestService_GetByID(t *testing.T) {
	svc, repo := setup(t)
	usr := testutil.CreateUser(t, repo, "Sana", "sana@test.pk", "", user.RoleStudent)

	got, err := svc.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr, got)

	_, err = svc.GetByID(context.Background(), "unknown")
	assert.True(t, core.IsNotFound(err))
}

func TestGuards(t *testing.T) {
	student := &user.Session{ID: "1", Role: user.RoleStudent}
	admin := &user.Session{ID: "2", Role: user.RoleAdmin}

	tests := []struct {
		name      string
		sess      *user.Session
		wantAuth  error
		wantAdmin error
	}{
		{name: "no session", sess: nil, wantAuth: user.ErrUnauthenticated, wantAdmin: user.ErrUnauthenticated},
		{name: "empty session", sess: &user.Session{}, wantAuth: user.ErrUnauthenticated, wantAdmin: user.ErrUnauthenticated},
		{name: "student", sess: student, wantAdmin: user.ErrForbidden},
		{name: "admin", sess: admin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAuth, user.RequireAuthenticated(tt.sess))
			assert.Equal(t, tt.wantAdmin, user.RequireAdmin(tt.sess))
		})
	}
}
