// Package auth contém os controllers das telas de login e cadastro.
package auth

import (
	"context"
	"strings"

	"finalfeliz/internal/controller"
	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/validation"
)

// EventLoggedIn é emitido após login ou cadastro com sucesso.
const EventLoggedIn controller.Event = "logged_in"

// Authenticator é a parte do userservice usada pelas telas de acesso.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
	Register(ctx context.Context, reg domain.UserRegistration) (int64, error)
}

// Throttle limita tentativas de login por email (ratelimit.Limiter).
type Throttle interface {
	Allow(ctx context.Context, key string) bool
	Reset(ctx context.Context, key string)
}

// LoginState é o snapshot da tela de login.
type LoginState struct {
	Email      string
	Password   string
	EmailValid bool
	CanSubmit  bool
	Submitting bool
	Error      *domain.ErrorMessage
}

// LoginController controla o formulário de login.
type LoginController struct {
	*controller.Base[LoginState]
	users    Authenticator
	throttle Throttle
}

// NewLoginController cria o controller com o formulário vazio. throttle pode ser nil.
func NewLoginController(parent context.Context, users Authenticator, throttle Throttle, log logger.Logger) *LoginController {
	return &LoginController{
		Base:     controller.NewBase(parent, LoginState{}, log),
		users:    users,
		throttle: throttle,
	}
}

// SetEmail atualiza o campo de email.
func (c *LoginController) SetEmail(email string) {
	c.Update(func(s LoginState) LoginState {
		s.Email = email
		return s.validate()
	})
}

// SetPassword atualiza o campo de senha.
func (c *LoginController) SetPassword(password string) {
	c.Update(func(s LoginState) LoginState {
		s.Password = password
		return s.validate()
	})
}

func (s LoginState) validate() LoginState {
	s.EmailValid = validation.IsValidEmail(s.Email)
	s.CanSubmit = s.EmailValid && s.Password != "" && !s.Submitting
	s.Error = nil
	return s
}

// Submit tenta o login. Falhas ficam em State().Error; sucesso emite EventLoggedIn.
func (c *LoginController) Submit(ctx context.Context) bool {
	var form LoginState
	proceed := false
	c.Update(func(s LoginState) LoginState {
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

	email := strings.TrimSpace(form.Email)
	var err error
	if c.throttle != nil && !c.throttle.Allow(ctx, "login:"+email) {
		err = apperror.NewRateLimitError("Demasiados intentos. Espera unos minutos e inténtalo de nuevo.")
	} else {
		_, err = c.users.Login(ctx, email, form.Password)
	}

	c.Update(func(s LoginState) LoginState {
		s.Submitting = false
		s = s.validate()
		s.Error = controller.Message(err)
		return s
	})
	if err != nil {
		c.Logger().Debug("Login recusado.", map[string]interface{}{"error": err.Error()})
		return false
	}
	if c.throttle != nil {
		c.throttle.Reset(ctx, "login:"+email)
	}
	c.Emit(EventLoggedIn)
	return true
}
