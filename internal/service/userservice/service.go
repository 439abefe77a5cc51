package userservice

import (
	"context"
	"errors"

	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/database"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
)

// UserRepository define o contrato que este Serviço espera da camada de Persistência.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	Delete(ctx context.Context, id int64) error
}

// SessionStore é o estado de sessão do processo (internal/session).
type SessionStore interface {
	SetCurrent(ctx context.Context, id int64)
	ClearCurrent(ctx context.Context)
	Current() (int64, bool)
	Subscribe() *observable.Subscription[int64]
}

// ChangeSource entrega revisões por tabela (database.ChangeFeed).
type ChangeSource interface {
	Subscribe(t database.Table) *observable.Subscription[uint64]
}

// Service media entre usuários persistidos, sessão e controllers.
type Service struct {
	repo    UserRepository
	session SessionStore
	changes ChangeSource
	logger  logger.Logger
	current *observable.Value[*domain.User]
}

// NewService cria uma nova instância do Service, injetando Repositório e Sessão.
func NewService(repo UserRepository, session SessionStore, changes ChangeSource, log logger.Logger) *Service {
	return &Service{
		repo:    repo,
		session: session,
		changes: changes,
		logger:  log,
		current: observable.NewValue[*domain.User](nil),
	}
}

// Register cria o usuário e o coloca como sessão atual.
// Um email já cadastrado (comparação exata) devolve DuplicateEmailError e não toca na sessão.
func (s *Service) Register(ctx context.Context, reg domain.UserRegistration) (int64, error) {
	s.logger.Debug("Iniciando registro.", map[string]interface{}{"email": reg.Email})

	_, err := s.repo.FindByEmail(ctx, reg.Email)
	switch {
	case err == nil:
		return 0, apperror.NewDuplicateEmailError(reg.Email)
	case !apperror.Is(err, apperror.KindNotFound):
		return 0, apperror.AsStorage("Falha ao verificar email.", err)
	}

	user, err := s.repo.Save(ctx, domain.User{
		Name:     reg.Name,
		Email:    reg.Email,
		Password: reg.Password,
	})
	if err != nil {
		if apperror.Is(err, apperror.KindDuplicateEmail) {
			return 0, err
		}
		return 0, apperror.AsStorage("Falha ao salvar usuário.", err)
	}

	s.session.SetCurrent(ctx, user.ID)
	s.current.Set(&user)
	s.logger.Info("Usuário registrado.", map[string]interface{}{"user_id": user.ID})
	return user.ID, nil
}

// Login autentica por email e senha (comparação exata) e define a sessão.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return domain.User{}, err
		}
		return domain.User{}, apperror.AsStorage("Falha ao buscar usuário.", err)
	}

	if user.Password != password {
		s.logger.Info("Senha incorreta.", map[string]interface{}{"user_id": user.ID})
		return domain.User{}, apperror.NewInvalidCredentialsError()
	}

	s.session.SetCurrent(ctx, user.ID)
	s.current.Set(&user)
	s.logger.Info("Login efetuado.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// Logout limpa a sessão.
func (s *Service) Logout(ctx context.Context) {
	s.session.ClearCurrent(ctx)
	s.current.Set(nil)
	s.logger.Info("Logout efetuado.", nil)
}

// ObserveCurrentUser observa o usuário da sessão: nil quando deslogado ou
// quando o registro referenciado deixou de existir.
func (s *Service) ObserveCurrentUser() *observable.Subscription[*domain.User] {
	return s.current.Subscribe()
}

// CurrentUser devolve o último valor publicado.
func (s *Service) CurrentUser() *domain.User {
	return s.current.Get()
}

// RequireAdmin devolve ForbiddenError se a sessão não for de administrador.
func (s *Service) RequireAdmin() error {
	u := s.current.Get()
	if u == nil || !u.IsAdmin {
		return apperror.NewForbiddenError("Solo un administrador puede hacer esto.")
	}
	return nil
}

// Run reavalia o usuário atual a cada mudança de sessão ou da tabela users.
// Bloqueia até ctx ser cancelado.
func (s *Service) Run(ctx context.Context) {
	sessionSub := s.session.Subscribe()
	defer sessionSub.Cancel()
	usersSub := s.changes.Subscribe(database.TableUsers)
	defer usersSub.Cancel()

	// Os valores iniciais das duas assinaturas valem por uma única resolução.
	<-sessionSub.C()
	<-usersSub.C()
	s.Resolve(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sessionSub.C():
			if !ok {
				return
			}
		case _, ok := <-usersSub.C():
			if !ok {
				return
			}
		}
		s.Resolve(ctx)
	}
}

// Resolve recarrega o usuário apontado pela sessão e o publica.
// Falhas de armazenamento mantêm o último valor publicado.
func (s *Service) Resolve(ctx context.Context) {
	id, ok := s.session.Current()
	if !ok {
		s.current.Set(nil)
		return
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			s.current.Set(nil)
			return
		}
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("Falha ao recarregar usuário atual.", err)
		}
		return
	}
	s.current.Set(&user)
}

// --- Operações de administrador ---

// List devolve todos os usuários.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.AsStorage("Falha ao listar usuários.", err)
	}
	return users, nil
}

// SetAdmin liga ou desliga o privilégio de administrador.
func (s *Service) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	if err := s.repo.SetAdmin(ctx, id, isAdmin); err != nil {
		return apperror.AsStorage("Falha ao alterar privilégio.", err)
	}
	s.refreshIfCurrent(ctx, id)
	return nil
}

// Update grava o usuário. Um email de outro usuário devolve DuplicateEmailError.
func (s *Service) Update(ctx context.Context, user domain.User) error {
	if err := s.repo.Update(ctx, user); err != nil {
		return apperror.AsStorage("Falha ao atualizar usuário.", err)
	}
	s.refreshIfCurrent(ctx, user.ID)
	return nil
}

// Delete remove o usuário.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.AsStorage("Falha ao remover usuário.", err)
	}
	s.refreshIfCurrent(ctx, id)
	return nil
}

func (s *Service) refreshIfCurrent(ctx context.Context, id int64) {
	if cur, ok := s.session.Current(); ok && cur == id {
		s.Resolve(ctx)
	}
}

