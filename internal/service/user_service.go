package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"travel-tracker/internal/apperr"
	"travel-tracker/internal/auth"
	"travel-tracker/internal/domain"
	"travel-tracker/internal/repository"
)

const (
	msgAllFieldsRequired  = "Todos os campos são obrigatórios"
	msgInvalidEmail       = "Email inválido"
	msgCredentialsMissing = "Email e senha são obrigatórios"
	msgInvalidCredentials = "Credenciais inválidas"
	msgEmailTaken         = "Email já cadastrado"
	msgUserNotFound       = "Usuário não encontrado"
	msgPasswordTooLong    = "A senha deve ter no máximo 72 bytes"
)

var tracer = otel.Tracer("travel-tracker/internal/service")

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(identity auth.Identity) (string, error)
}

// RegisterInput carries the fields accepted when creating an account.
type RegisterInput struct {
	Email      string `json:"email" validate:"required,email"`
	FullName   string `json:"nome_completo" validate:"required"`
	Street     string `json:"endereco" validate:"required"`
	State      string `json:"estado" validate:"required"`
	City       string `json:"cidade" validate:"required"`
	Number     string `json:"numero" validate:"required"`
	PostalCode string `json:"cep" validate:"required"`
	Password   string `json:"senha" validate:"required"`
}

// UpdateUserInput is a partial update; empty fields keep the stored value.
type UpdateUserInput struct {
	Email      string `json:"email" validate:"omitempty,email"`
	FullName   string `json:"nome_completo"`
	Street     string `json:"endereco"`
	State      string `json:"estado"`
	City       string `json:"cidade"`
	Number     string `json:"numero"`
	PostalCode string `json:"cep"`
	Password   string `json:"senha"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  *domain.User
}

// UserService describes the account lifecycle. Every method other than
// Register and Login is keyed by the id recovered from a verified session.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens TokenIssuer
}

func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher, tokens TokenIssuer) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "user.register")
	defer func() { endSpan(span, err) }()

	input = trimRegister(input)
	failed, err := failedTags(input)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if hasTag(failed, "required") {
		return nil, apperr.Validation(msgAllFieldsRequired)
	}
	if len(failed) > 0 {
		return nil, apperr.Validation(msgInvalidEmail)
	}
	if len(input.Password) > auth.MaxPasswordBytes {
		return nil, apperr.Validation(msgPasswordTooLong)
	}
	span.SetAttributes(attribute.String("user.email", input.Email))

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperr.Conflict(msgEmailTaken)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        input.Email,
		FullName:     input.FullName,
		Street:       input.Street,
		City:         input.City,
		State:        input.State,
		Number:       input.Number,
		PostalCode:   input.PostalCode,
		PasswordHash: hash,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict(msgEmailTaken)
		}
		return nil, apperr.Internal(err)
	}
	span.SetAttributes(attribute.Int64("user.id", user.ID))

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, email, password string) (_ *LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "user.login")
	defer func() { endSpan(span, err) }()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation(msgCredentialsMissing)
	}
	span.SetAttributes(attribute.String("user.email", email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, apperr.Internal(err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FullName,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	span.SetAttributes(attribute.Int64("user.id", user.ID))

	return &LoginResult{Token: token, User: sanitizeUser(user)}, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) Update(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error) {
	input = trimUpdate(input)
	failed, err := failedTags(input)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(failed) > 0 {
		return nil, apperr.Validation(msgInvalidEmail)
	}
	if len(input.Password) > auth.MaxPasswordBytes {
		return nil, apperr.Validation(msgPasswordTooLong)
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != "" && input.Email != user.Email {
		owner, err := s.users.GetByEmail(ctx, input.Email)
		switch {
		case err == nil && owner.ID != user.ID:
			return nil, apperr.Conflict(msgEmailTaken)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, apperr.Internal(err)
		}
		user.Email = input.Email
	}
	user.FullName = keep(input.FullName, user.FullName)
	user.Street = keep(input.Street, user.Street)
	user.State = keep(input.State, user.State)
	user.City = keep(input.City, user.City)
	user.Number = keep(input.Number, user.Number)
	user.PostalCode = keep(input.PostalCode, user.PostalCode)

	if input.Password != "" {
		hash, err := s.hashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperr.Conflict(msgEmailTaken)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err)
	}

	return sanitizeUser(user), nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperr.Validation(msgPasswordTooLong)
		}
		return "", apperr.Internal(err)
	}
	return hash, nil
}

func (s *userService) load(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// sanitizeUser copies user without the password hash.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Street:     user.Street,
		City:       user.City,
		State:      user.State,
		Number:     user.Number,
		PostalCode: user.PostalCode,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// passwords are taken verbatim
func trimRegister(in RegisterInput) RegisterInput {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Street = strings.TrimSpace(in.Street)
	in.State = strings.TrimSpace(in.State)
	in.City = strings.TrimSpace(in.City)
	in.Number = strings.TrimSpace(in.Number)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	return in
}

func trimUpdate(in UpdateUserInput) UpdateUserInput {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Street = strings.TrimSpace(in.Street)
	in.State = strings.TrimSpace(in.State)
	in.City = strings.TrimSpace(in.City)
	in.Number = strings.TrimSpace(in.Number)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	return in
}

func keep(next, current string) string {
	if next == "" {
		return current
	}
	return next
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("error.kind", apperr.KindOf(err).String()))
		if apperr.KindOf(err) == apperr.KindInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
