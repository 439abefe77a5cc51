// Package admin controla as telas de administração de produtos e usuários.
// Toda operação passa por RequireAdmin; sessões sem privilégio recebem FORBIDDEN.
package admin

import (
	"context"

	"finalfeliz/internal/controller"
	"finalfeliz/internal/domain"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
)

// EventSaved é emitido após cada alteração bem-sucedida.
const EventSaved controller.Event = "admin_saved"

// Gate é a checagem de privilégio do userservice.
type Gate interface {
	ObserveCurrentUser() *observable.Subscription[*domain.User]
	RequireAdmin() error
}

// Products é o productservice visto pela administração.
type Products interface {
	ObserveAll() *observable.Subscription[domain.Catalog]
	Add(ctx context.Context, fields domain.ProductFields) (int64, error)
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, p domain.Product) error
}

// ProductsState é o snapshot da administração de produtos.
type ProductsState struct {
	Products []domain.Product
	Loading  bool
	IsAdmin  bool
	Banner   *domain.ErrorMessage // falha de carga do catálogo
	Error    *domain.ErrorMessage // falha da última operação
}

// ProductsController controla o CRUD de produtos.
type ProductsController struct {
	*controller.Base[ProductsState]
	gate     Gate
	products Products
}

// NewProductsController acompanha o catálogo e o usuário atual até o Close.
func NewProductsController(parent context.Context, gate Gate, products Products, log logger.Logger) *ProductsController {
	c := &ProductsController{
		Base:     controller.NewBase(parent, ProductsState{Loading: true}, log),
		gate:     gate,
		products: products,
	}
	controller.Follow(c.Base, gate.ObserveCurrentUser(), func(s ProductsState, u *domain.User) ProductsState {
		s.IsAdmin = u != nil && u.IsAdmin
		return s
	})
	controller.Follow(c.Base, products.ObserveAll(), func(s ProductsState, cat domain.Catalog) ProductsState {
		s.Products = cat.Products
		s.Loading = !cat.Loaded
		s.Banner = controller.Message(cat.Err)
		return s
	})
	return c
}

// Add cria um produto.
func (c *ProductsController) Add(ctx context.Context, fields domain.ProductFields) (int64, bool) {
	var id int64
	ok := c.run(func() error {
		var err error
		id, err = c.products.Add(ctx, fields)
		return err
	})
	return id, ok
}

// Update grava o produto.
func (c *ProductsController) Update(ctx context.Context, p domain.Product) bool {
	return c.run(func() error { return c.products.Update(ctx, p) })
}

// Delete remove o produto.
func (c *ProductsController) Delete(ctx context.Context, p domain.Product) bool {
	return c.run(func() error { return c.products.Delete(ctx, p) })
}

func (c *ProductsController) run(op func() error) bool {
	err := c.gate.RequireAdmin()
	if err == nil {
		err = op()
	}
	c.Base.Update(func(s ProductsState) ProductsState {
		s.Error = controller.Message(err)
		return s
	})
	if err != nil {
		c.Logger().Debug("Operação de administração recusada.", map[string]interface{}{"error": err.Error()})
		return false
	}
	c.Emit(EventSaved)
	return true
}
