package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user", "user not found")
	ErrEmailExists        = core.NewConflictError("email", "Email already exists")
	ErrInvalidCredentials = core.NewAuthError("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("permission denied")

	// compared against when the email is unknown so both failures cost a bcrypt comparison
	dummyUser = func() User {
		var usr User
		_ = usr.SetPassword(uuid.NewString())
		return usr
	}()
)

type (
	// Repository persists the "users" collection.
	Repository interface {
		ListAll(ctx context.Context) ([]User, error)
		// Update runs a read-modify-replace cycle of the whole collection.
		Update(ctx context.Context, fn func([]User) ([]User, error)) error
	}

	Service struct {
		repo     Repository
		validate *core.Validator
	}
)

func NewService(repo Repository, validate *core.Validator) *Service {
	return &Service{repo: repo, validate: validate}
}

// SignUp creates a student account and returns its Session.
func (svc *Service) SignUp(ctx context.Context, nu NewUser) (*Session, error) {
	usr, err := svc.CreateUser(ctx, nu, RoleStudent)
	if err != nil {
		return nil, err
	}
	return NewSession(usr), nil
}

// CreateUser validates and inserts a new User with the given role.
// Email uniqueness is only checked here, by scanning the collection.
func (svc *Service) CreateUser(ctx context.Context, nu NewUser, role string) (User, error) {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}

	usr := User{
		ID:    uuid.NewString(),
		Name:  nu.Name,
		Email: nu.Email,
		Phone: nu.Phone,
		Role:  role,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	err := svc.repo.Update(ctx, func(users []User) ([]User, error) {
		for _, u := range users {
			if u.Email == usr.Email {
				return nil, ErrEmailExists
			}
		}
		return append(users, usr), nil
	})
	if err != nil {
		if err == ErrEmailExists {
			return User{}, err
		}
		return User{}, errors.Wrap(err, "saving user")
	}
	return usr, nil
}

// LogIn returns a Session for the matching credentials.
// Unknown emails and wrong passwords fail with the same ErrInvalidCredentials.
func (svc *Service) LogIn(ctx context.Context, email, pwd string) (*Session, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if err != ErrNotFound {
			return nil, err
		}
		_ = dummyUser.CheckPassword(pwd)
		return nil, ErrInvalidCredentials
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, ErrInvalidCredentials
	}
	return NewSession(usr), nil
}

// EnsureAdminSeed creates the admin account if no User has the given email.
func (svc *Service) EnsureAdminSeed(ctx context.Context, email, pwd string) (bool, error) {
	_, err := svc.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if err != ErrNotFound {
		return false, err
	}

	_, err = svc.CreateUser(ctx, NewUser{Name: "Admin", Email: email, Password: pwd}, RoleAdmin)
	if err == ErrEmailExists { // seeded concurrently
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "seeding admin")
	}
	return true, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	users, err := svc.repo.ListAll(ctx)
	return users, errors.Wrap(err, "querying users")
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.find(ctx, func(u User) bool { return u.ID == id })
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email)
	return svc.find(ctx, func(u User) bool { return u.Email == email })
}

// ResetPassword sets a new password for the User with the given email.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	if pwd == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: "this field is required"})
	}
	email = core.CleanString(email)

	var hashed User
	if err := hashed.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}

	return svc.repo.Update(ctx, func(users []User) ([]User, error) {
		for i := range users {
			if users[i].Email == email {
				users[i].PasswordHash = hashed.PasswordHash
				return users, nil
			}
		}
		return nil, ErrNotFound
	})
}

func (svc *Service) find(ctx context.Context, match func(User) bool) (User, error) {
	users, err := svc.repo.ListAll(ctx)
	if err != nil {
		return User{}, errors.Wrap(err, "listing users")
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}
