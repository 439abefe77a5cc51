// Package catalog controla a vitrine: lista de produtos, busca e "agregar al carrito".
package catalog

import (
	"context"
	"strings"

	"finalfeliz/internal/controller"
	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
)

// EventAddedToCart é emitido a cada produto colocado no carrinho.
const EventAddedToCart controller.Event = "added_to_cart"

// ProductSource é o catálogo observável (productservice).
type ProductSource interface {
	ObserveAll() *observable.Subscription[domain.Catalog]
}

// Cart recebe os produtos escolhidos (cartservice).
type Cart interface {
	AddOne(product domain.Product)
}

// State é o snapshot da vitrine.
type State struct {
	All     []domain.Product
	Visible []domain.Product // All filtrado por Query
	Query   string
	Loading bool
	Banner  *domain.ErrorMessage // falha de carga ou ação; não esconde a lista
}

// Controller controla a vitrine.
type Controller struct {
	*controller.Base[State]
	cart Cart
}

// NewController assina o catálogo até o Close.
func NewController(parent context.Context, products ProductSource, cart Cart, log logger.Logger) *Controller {
	c := &Controller{
		Base: controller.NewBase(parent, State{Loading: true}, log),
		cart: cart,
	}
	controller.Follow(c.Base, products.ObserveAll(), func(s State, cat domain.Catalog) State {
		s.All = cat.Products
		s.Loading = !cat.Loaded
		s.Banner = controller.Message(cat.Err)
		s.Visible = filter(s.All, s.Query)
		return s
	})
	return c
}

// SetQuery filtra por nome ou material, sem diferenciar maiúsculas.
func (c *Controller) SetQuery(q string) {
	c.Update(func(s State) State {
		s.Query = q
		s.Visible = filter(s.All, q)
		return s
	})
}

// AddToCart coloca uma unidade do produto no carrinho.
func (c *Controller) AddToCart(productID int64) bool {
	var (
		product domain.Product
		found   bool
	)
	for _, p := range c.State().All {
		if p.ID == productID {
			product, found = p, true
			break
		}
	}
	if !found {
		c.Update(func(s State) State {
			s.Banner = controller.Message(apperror.NewNotFoundError("El producto ya no está disponible."))
			return s
		})
		return false
	}

	c.cart.AddOne(product)
	c.Emit(EventAddedToCart)
	return true
}

// DismissBanner esconde o banner atual.
func (c *Controller) DismissBanner() {
	c.Update(func(s State) State {
		s.Banner = nil
		return s
	})
}

func filter(products []domain.Product, query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Material), q) {
			out = append(out, p)
		}
	}
	return out
}
