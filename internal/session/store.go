// Package session guarda o usuário logado do processo: um único ID observável,
// persistido localmente numa chave de sessão.
package session

import (
	"context"
	"errors"

	"finalfeliz/internal/pkg/cache"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
)

// Key é a chave única que guarda o usuário atual.
const Key = "session:current_user"

// TokenService assina o ID persistido, para que um valor corrompido ou forjado
// na chave restaure "deslogado" em vez de outro usuário.
type TokenService interface {
	GenerateToken(userID int64) (string, error)
	ValidateToken(tokenString string) (int64, error)
}

// Store é o estado de sessão. 0 significa deslogado.
type Store struct {
	kv      cache.Client
	tokens  TokenService
	logger  logger.Logger
	current *observable.Value[int64]
}

// NewStore cria a sessão deslogada. Chame Restore para ler o valor persistido.
func NewStore(kv cache.Client, tokens TokenService, log logger.Logger) *Store {
	return &Store{
		kv:      kv,
		tokens:  tokens,
		logger:  log,
		current: observable.NewValue[int64](0),
	}
}

// Restore lê a chave persistida e publica o ID encontrado.
func (s *Store) Restore(ctx context.Context) int64 {
	raw, err := s.kv.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Error("Falha ao ler a sessão persistida.", err)
		}
		s.current.Set(0)
		return 0
	}

	id, err := s.tokens.ValidateToken(raw)
	if err != nil {
		s.logger.Warn("Sessão persistida inválida; iniciando deslogado.", map[string]interface{}{"error": err.Error()})
		_ = s.kv.Delete(ctx, Key)
		s.current.Set(0)
		return 0
	}

	s.logger.Debug("Sessão restaurada.", map[string]interface{}{"user_id": id})
	s.current.Set(id)
	return id
}

// SetCurrent persiste id e o publica. Falhas de armazenamento são só registradas.
func (s *Store) SetCurrent(ctx context.Context, id int64) {
	tok, err := s.tokens.GenerateToken(id)
	if err != nil {
		s.logger.Error("Falha ao assinar o token de sessão.", err)
	} else if err := s.kv.Set(ctx, Key, tok, 0); err != nil {
		s.logger.Error("Falha ao persistir a sessão.", err)
	}
	s.current.Set(id)
}

// ClearCurrent persiste a ausência e publica 0.
func (s *Store) ClearCurrent(ctx context.Context) {
	if err := s.kv.Delete(ctx, Key); err != nil {
		s.logger.Error("Falha ao apagar a sessão persistida.", err)
	}
	s.current.Set(0)
}

// Current devolve o último ID publicado.
func (s *Store) Current() (int64, bool) {
	id := s.current.Get()
	return id, id != 0
}

// Subscribe observa o ID atual (0 = deslogado).
func (s *Store) Subscribe() *observable.Subscription[int64] {
	return s.current.Subscribe()
}
