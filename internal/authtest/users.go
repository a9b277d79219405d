package authtest

import (
	"sync"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/profile"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// User is an account of the fake backend.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Groups       []string
	UserType     profile.UserType
	PartnerCode  string
	ShareLink    string // Invitation link used at signup
}

// Profile is the GET /users/me view of the user.
func (u *User) Profile() *profile.UserProfile {
	p := &profile.UserProfile{
		Username:    u.Email,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.Phone,
		UserType:    u.UserType,
		Expertise:   []string{},
		Partners:    []profile.Partner{},
	}
	if u.PartnerCode != "" {
		code := u.PartnerCode
		p.PartnerCode = &code
	}
	return p
}

// userRepo keeps users in memory, keyed by ID with an email index.
type userRepo struct {
	users    map[string]*User
	emailIDs map[string]string
	cost     int
	lock     sync.RWMutex
}

func newUserRepo(cost int) *userRepo {
	return &userRepo{
		users:    make(map[string]*User),
		emailIDs: make(map[string]string),
		cost:     cost,
	}
}

func (ur *userRepo) create(user *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), ur.cost)
	if err != nil {
		return errors.Wrap(err, "bcrypt.GenerateFromPassword")
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, exists := ur.emailIDs[user.Email]; exists {
		return errors.Wrapf(errs.ErrValidation, "user %s already exists", user.Email)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.PasswordHash = string(hash)
	ur.users[user.ID] = user
	ur.emailIDs[user.Email] = user.ID
	return nil
}

func (ur *userRepo) getByEmail(email string) (*User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIDs[email]
	if !ok {
		return nil, errors.Wrapf(errs.ErrNotFound, "user %s", email)
	}
	return ur.users[id], nil
}

func (ur *userRepo) getByID(id string) (*User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, errors.Wrapf(errs.ErrNotFound, "user id %s", id)
	}
	return user, nil
}

// authenticate returns the user when password matches.
func (ur *userRepo) authenticate(email, password string) (*User, bool) {
	user, err := ur.getByEmail(email)
	if err != nil {
		return nil, false
	}
	return user, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func (ur *userRepo) setPassword(id, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), ur.cost)
	if err != nil {
		return errors.Wrap(err, "bcrypt.GenerateFromPassword")
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return errors.Wrapf(errs.ErrNotFound, "user id %s", id)
	}
	user.PasswordHash = string(hash)
	return nil
}
