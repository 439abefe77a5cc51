// Package cart controla a tela do carrinho.
package cart

import (
	"context"

	"finalfeliz/internal/controller"
	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
	"finalfeliz/internal/service/cartservice"
)

// EventCheckedOut é emitido quando a compra é concluída.
const EventCheckedOut controller.Event = "checked_out"

// Cart é o carrinho do processo (cartservice).
type Cart interface {
	Observe() *observable.Subscription[[]domain.CartItem]
	Items() []domain.CartItem
	UpdateQuantity(productID int64, qty int)
	Remove(productID int64)
	Clear()
}

// State é o snapshot do carrinho.
type State struct {
	Items []domain.CartItem
	Total int64
	Count int
	Error *domain.ErrorMessage
}

// Controller controla o carrinho.
type Controller struct {
	*controller.Base[State]
	cart Cart
}

// NewController acompanha o carrinho até o Close.
func NewController(parent context.Context, cart Cart, log logger.Logger) *Controller {
	c := &Controller{
		Base: controller.NewBase(parent, State{}, log),
		cart: cart,
	}
	controller.Follow(c.Base, cart.Observe(), func(s State, items []domain.CartItem) State {
		s.Items = items
		s.Total = cartservice.Total(items)
		s.Count = cartservice.Count(items)
		if len(items) > 0 {
			s.Error = nil
		}
		return s
	})
	return c
}

func (c *Controller) quantity(productID int64) int {
	for _, it := range c.cart.Items() {
		if it.Product.ID == productID {
			return it.Quantity
		}
	}
	return 0
}

// Increment soma uma unidade à linha.
func (c *Controller) Increment(productID int64) {
	if q := c.quantity(productID); q > 0 {
		c.cart.UpdateQuantity(productID, q+1)
	}
}

// Decrement tira uma unidade; a linha some ao chegar a zero.
func (c *Controller) Decrement(productID int64) {
	if q := c.quantity(productID); q > 0 {
		c.cart.UpdateQuantity(productID, q-1)
	}
}

// Remove descarta a linha.
func (c *Controller) Remove(productID int64) {
	c.cart.Remove(productID)
}

// Checkout conclui a compra: não há pagamento, o carrinho só é esvaziado.
func (c *Controller) Checkout() bool {
	items := c.cart.Items()
	if len(items) == 0 {
		c.Update(func(s State) State {
			s.Error = controller.Message(apperror.NewValidationError("Tu carrito está vacío."))
			return s
		})
		return false
	}

	c.cart.Clear()
	c.Logger().Info("Compra concluída.", map[string]interface{}{
		"items": cartservice.Count(items),
		"total": cartservice.Total(items),
	})
	c.Emit(EventCheckedOut)
	return true
}
