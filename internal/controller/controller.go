// Package controller tem a base comum dos controllers de tela: snapshot
// observável, eventos únicos de navegação e cancelamento no Close.
package controller

import (
	"context"
	"sync"

	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
)

// Event é um aviso único para a camada de apresentação (navegar, toast).
type Event string

// eventBuffer limita os eventos pendentes; além disso o evento é descartado.
const eventBuffer = 8

// Base guarda o snapshot S de uma tela e as goroutines que o alimentam.
type Base[S any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	state  *observable.Value[S]
	events chan Event
	wg     sync.WaitGroup
	logger logger.Logger
}

// NewBase cria a base ligada a parent: cancelar parent equivale a Close.
func NewBase[S any](parent context.Context, initial S, log logger.Logger) *Base[S] {
	ctx, cancel := context.WithCancel(parent)
	return &Base[S]{
		ctx:    ctx,
		cancel: cancel,
		state:  observable.NewValue(initial),
		events: make(chan Event, eventBuffer),
		logger: log,
	}
}

// State devolve o snapshot atual.
func (b *Base[S]) State() S {
	return b.state.Get()
}

// Subscribe observa os snapshots. O canal fecha no Close.
func (b *Base[S]) Subscribe() *observable.Subscription[S] {
	return b.state.Subscribe()
}

// Events entrega os eventos únicos. O canal nunca é fechado.
func (b *Base[S]) Events() <-chan Event {
	return b.events
}

// Context é cancelado no Close.
func (b *Base[S]) Context() context.Context {
	return b.ctx
}

// Logger devolve o logger da tela.
func (b *Base[S]) Logger() logger.Logger {
	return b.logger
}

// Update aplica fn ao snapshot e publica o resultado.
func (b *Base[S]) Update(fn func(S) S) S {
	return b.state.Update(fn)
}

// Emit envia um evento sem bloquear.
func (b *Base[S]) Emit(e Event) {
	select {
	case b.events <- e:
	default:
		b.logger.Warn("Evento descartado: fila cheia.", map[string]interface{}{"event": string(e)})
	}
}

// Go roda fn numa goroutine acompanhada pelo Close.
func (b *Base[S]) Go(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
}

// Follow repassa cada valor de sub para apply até o Close ou o fim da assinatura.
func Follow[S, T any](b *Base[S], sub *observable.Subscription[T], apply func(S, T) S) {
	b.Go(func(ctx context.Context) {
		defer sub.Cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-sub.C():
				if !ok {
					return
				}
				b.Update(func(s S) S { return apply(s, v) })
			}
		}
	})
}

// Close cancela as goroutines, espera que terminem e fecha os assinantes.
func (b *Base[S]) Close() {
	b.cancel()
	b.wg.Wait()
	b.state.Close()
}

// Message traduz err para o snapshot; nil devolve nil.
func Message(err error) *domain.ErrorMessage {
	if err == nil {
		return nil
	}
	msg := apperror.UserMessage(err)
	return &msg
}
