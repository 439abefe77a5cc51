package auth

import (
	"context"
	"strings"

	"finalfeliz/internal/controller"
	"finalfeliz/internal/domain"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/validation"
)

// RegisterState é o snapshot da tela de cadastro, com a validade de cada campo.
type RegisterState struct {
	Name           string
	Email          string
	Password       string
	Confirm        string
	NameValid      bool
	EmailValid     bool
	PasswordStrong bool
	PasswordsMatch bool
	CanSubmit      bool
	Submitting     bool
	Error          *domain.ErrorMessage
}

// RegisterController controla o formulário de cadastro.
type RegisterController struct {
	*controller.Base[RegisterState]
	users Authenticator
}

// NewRegisterController cria o controller com o formulário vazio.
func NewRegisterController(parent context.Context, users Authenticator, log logger.Logger) *RegisterController {
	return &RegisterController{
		Base:  controller.NewBase(parent, RegisterState{}, log),
		users: users,
	}
}

func (c *RegisterController) edit(fn func(*RegisterState)) {
	c.Update(func(s RegisterState) RegisterState {
		fn(&s)
		return s.validate()
	})
}

func (c *RegisterController) SetName(v string)     { c.edit(func(s *RegisterState) { s.Name = v }) }
func (c *RegisterController) SetEmail(v string)    { c.edit(func(s *RegisterState) { s.Email = v }) }
func (c *RegisterController) SetPassword(v string) { c.edit(func(s *RegisterState) { s.Password = v }) }
func (c *RegisterController) SetConfirm(v string)  { c.edit(func(s *RegisterState) { s.Confirm = v }) }

func (s RegisterState) validate() RegisterState {
	s.NameValid = validation.IsValidName(s.Name)
	s.EmailValid = validation.IsValidEmail(s.Email)
	s.PasswordStrong = validation.IsStrongPassword(s.Password)
	s.PasswordsMatch = s.Password != "" && s.Password == s.Confirm
	s.CanSubmit = s.NameValid && s.EmailValid && s.PasswordStrong && s.PasswordsMatch && !s.Submitting
	s.Error = nil
	return s
}

// Submit cadastra e já deixa o usuário logado. Sucesso emite EventLoggedIn.
func (c *RegisterController) Submit(ctx context.Context) bool {
	var form RegisterState
	proceed := false
	c.Update(func(s RegisterState) RegisterState {
		form = s
		if !s.CanSubmit {
			return s
		}
		proceed = true
		s.Submitting = true
		s.CanSubmit = false
		return s
	})
	if !proceed {
		return false
	}

	_, err := c.users.Register(ctx, domain.UserRegistration{
		Name:     strings.TrimSpace(form.Name),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	})

	c.Update(func(s RegisterState) RegisterState {
		s.Submitting = false
		s = s.validate()
		s.Error = controller.Message(err)
		return s
	})
	if err != nil {
		return false
	}
	c.Emit(EventLoggedIn)
	return true
}
