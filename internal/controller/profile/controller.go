// Package profile controla a tela de perfil do usuário logado.
package profile

import (
	"context"
	"strings"

	"finalfeliz/internal/controller"
	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
	"finalfeliz/internal/validation"
)

const (
	EventSaved     controller.Event = "profile_saved"
	EventLoggedOut controller.Event = "logged_out"
)

// Users é a parte do userservice usada pelo perfil.
type Users interface {
	ObserveCurrentUser() *observable.Subscription[*domain.User]
	Update(ctx context.Context, user domain.User) error
	Logout(ctx context.Context)
}

// State é o snapshot do perfil. Name e Phone são os campos em edição.
type State struct {
	User       *domain.User
	Name       string
	Phone      string
	Dirty      bool
	NameValid  bool
	PhoneValid bool
	CanSave    bool
	Saving     bool
	Error      *domain.ErrorMessage
}

// Controller controla o perfil.
type Controller struct {
	*controller.Base[State]
	users Users
}

// NewController acompanha o usuário atual até o Close.
func NewController(parent context.Context, users Users, log logger.Logger) *Controller {
	c := &Controller{
		Base:  controller.NewBase(parent, State{}, log),
		users: users,
	}
	controller.Follow(c.Base, users.ObserveCurrentUser(), func(s State, u *domain.User) State {
		s.User = u
		// Edições em andamento não são sobrescritas pelo registro salvo.
		if !s.Dirty {
			s.Name, s.Phone = "", ""
			if u != nil {
				s.Name, s.Phone = u.Name, u.Phone
			}
		}
		return s.validate()
	})
	return c
}

func (s State) validate() State {
	s.NameValid = validation.IsValidName(s.Name)
	s.PhoneValid = validation.IsValidPhone(s.Phone)
	s.CanSave = s.User != nil && s.Dirty && s.NameValid && s.PhoneValid && !s.Saving
	return s
}

// SetName edita o nome.
func (c *Controller) SetName(name string) {
	c.Update(func(s State) State {
		s.Name, s.Dirty, s.Error = name, true, nil
		return s.validate()
	})
}

// SetPhone edita o telefone. Vazio remove o telefone.
func (c *Controller) SetPhone(phone string) {
	c.Update(func(s State) State {
		s.Phone, s.Dirty, s.Error = phone, true, nil
		return s.validate()
	})
}

// Save grava nome e telefone do usuário logado.
func (c *Controller) Save(ctx context.Context) bool {
	var form State
	proceed := false
	c.Update(func(s State) State {
		form = s
		if !s.CanSave {
			if s.User == nil {
				s.Error = controller.Message(apperror.NewValidationError("Debes iniciar sesión."))
			}
			return s
		}
		proceed = true
		s.Saving = true
		return s.validate()
	})
	if !proceed {
		return false
	}

	user := *form.User
	user.Name = strings.TrimSpace(form.Name)
	user.Phone = strings.TrimSpace(form.Phone)
	err := c.users.Update(ctx, user)

	c.Update(func(s State) State {
		s.Saving = false
		s.Error = controller.Message(err)
		if err == nil {
			s.Dirty = false
			s.Name, s.Phone = user.Name, user.Phone
		}
		return s.validate()
	})
	if err != nil {
		return false
	}
	c.Emit(EventSaved)
	return true
}

// Logout encerra a sessão e descarta as edições.
func (c *Controller) Logout(ctx context.Context) {
	c.users.Logout(ctx)
	c.Update(func(s State) State {
		s.User, s.Name, s.Phone = nil, "", ""
		s.Dirty, s.Error = false, nil
		return s.validate()
	})
	c.Emit(EventLoggedOut)
}
