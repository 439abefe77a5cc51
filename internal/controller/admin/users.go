package admin

import (
	"context"

	"finalfeliz/internal/controller"
	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/database"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
)

// Users é o userservice visto pela administração.
type Users interface {
	List(ctx context.Context) ([]domain.User, error)
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	Update(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, id int64) error
}

// ChangeSource avisa quando a tabela users muda.
type ChangeSource interface {
	Subscribe(t database.Table) *observable.Subscription[uint64]
}

// UsersState é o snapshot da administração de usuários.
type UsersState struct {
	Users   []domain.User
	Loading bool
	IsAdmin bool
	Self    int64 // ID do administrador logado
	Banner  *domain.ErrorMessage
	Error   *domain.ErrorMessage
}

// UsersController lista usuários e altera privilégios.
type UsersController struct {
	*controller.Base[UsersState]
	gate  Gate
	users Users
}

// NewUsersController recarrega a lista a cada mudança de sessão ou da tabela users.
func NewUsersController(parent context.Context, gate Gate, users Users, changes ChangeSource, log logger.Logger) *UsersController {
	c := &UsersController{
		Base:  controller.NewBase(parent, UsersState{Loading: true}, log),
		gate:  gate,
		users: users,
	}

	current := gate.ObserveCurrentUser()
	revisions := changes.Subscribe(database.TableUsers)
	c.Go(func(ctx context.Context) {
		defer current.Cancel()
		defer revisions.Cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-current.C():
				if !ok {
					return
				}
				c.Base.Update(func(s UsersState) UsersState {
					s.IsAdmin = u != nil && u.IsAdmin
					s.Self = 0
					if u != nil {
						s.Self = u.ID
					}
					return s
				})
			case _, ok := <-revisions.C():
				if !ok {
					return
				}
			}
			c.Reload(ctx)
		}
	})
	return c
}

// Reload relê a lista. Sem privilégio a lista fica vazia.
func (c *UsersController) Reload(ctx context.Context) {
	if err := c.gate.RequireAdmin(); err != nil {
		c.Base.Update(func(s UsersState) UsersState {
			s.Users, s.Loading, s.Banner = nil, false, controller.Message(err)
			return s
		})
		return
	}

	users, err := c.users.List(ctx)
	c.Base.Update(func(s UsersState) UsersState {
		s.Loading = false
		s.Banner = controller.Message(err)
		if err == nil {
			s.Users = users
		}
		return s
	})
}

// SetAdmin liga ou desliga o privilégio de outro usuário.
func (c *UsersController) SetAdmin(ctx context.Context, id int64, isAdmin bool) bool {
	return c.run(ctx, func() error {
		if id == c.State().Self && !isAdmin {
			return apperror.NewValidationError("No puedes quitarte tus propios privilegios.")
		}
		return c.users.SetAdmin(ctx, id, isAdmin)
	})
}

// Update grava os dados do usuário.
func (c *UsersController) Update(ctx context.Context, user domain.User) bool {
	return c.run(ctx, func() error { return c.users.Update(ctx, user) })
}

// Delete remove outro usuário.
func (c *UsersController) Delete(ctx context.Context, id int64) bool {
	return c.run(ctx, func() error {
		if id == c.State().Self {
			return apperror.NewValidationError("No puedes eliminar tu propia cuenta.")
		}
		return c.users.Delete(ctx, id)
	})
}

func (c *UsersController) run(ctx context.Context, op func() error) bool {
	err := c.gate.RequireAdmin()
	if err == nil {
		err = op()
	}
	c.Base.Update(func(s UsersState) UsersState {
		s.Error = controller.Message(err)
		return s
	})
	if err != nil {
		return false
	}
	c.Reload(ctx)
	c.Emit(EventSaved)
	return true
}
