// Package observable implementa o valor observável usado por sessão, serviços e
// controllers: um escritor, vários assinantes, entrega "último valor vence".
package observable

import (
	"sync"

	"github.com/google/uuid"
)

// Value guarda o valor atual e o empurra para todos os assinantes a cada Set.
// Cada assinante tem um canal de 1 posição: se ele ainda não leu o valor
// anterior, o valor pendente é substituído pelo mais novo.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	subs    map[string]chan T
	closed  bool
}

// NewValue cria um Value com o valor inicial informado.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[string]chan T),
	}
}

// Get devolve o último valor publicado, de forma síncrona.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set publica val para todos os assinantes.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.current = val
	for _, ch := range v.subs {
		offer(ch, val)
	}
}

// Update aplica fn sobre o valor atual e publica o resultado.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return v.current
	}
	v.current = fn(v.current)
	for _, ch := range v.subs {
		offer(ch, v.current)
	}
	return v.current
}

// offer entrega val sem bloquear, descartando um valor pendente mais antigo.
// Só é chamado com v.mu travado, então não há outro escritor no canal.
func offer[T any](ch chan T, val T) {
	select {
	case ch <- val:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- val:
	default:
	}
}

// Subscribe registra um novo assinante. O valor atual já está no canal.
func (v *Value[T]) Subscribe() *Subscription[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan T, 1)
	sub := &Subscription[T]{id: uuid.NewString(), ch: ch, parent: v}
	if v.closed {
		close(ch)
		return sub
	}
	ch <- v.current
	v.subs[sub.id] = ch
	return sub
}

// Subscribers devolve quantos assinantes estão ativos.
func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}

// Close encerra todos os assinantes. Sets posteriores são ignorados.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		close(ch)
		delete(v.subs, id)
	}
}

func (v *Value[T]) remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ch, ok := v.subs[id]; ok {
		close(ch)
		delete(v.subs, id)
	}
}

// Subscription é a ponta de leitura de um assinante.
type Subscription[T any] struct {
	id     string
	ch     chan T
	parent *Value[T]
	once   sync.Once
}

// C devolve o canal de valores. Ele é fechado em Cancel ou quando o Value fecha.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// ID identifica a assinatura (uuid).
func (s *Subscription[T]) ID() string {
	return s.id
}

// Cancel remove a assinatura. Pode ser chamado mais de uma vez.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		s.parent.remove(s.id)
	})
}
