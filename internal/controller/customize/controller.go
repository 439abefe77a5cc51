// Package customize controla a tela de personalização de um ataúd.
package customize

import (
	"context"

	"finalfeliz/internal/controller"
	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pricing"
)

// ProductFinder busca o produto base (productservice).
type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
}

// State é o snapshot da personalização. Estimate é recalculado a cada mudança.
type State struct {
	Product  *domain.Product
	Loading  bool
	Options  pricing.Options
	Estimate int64
	Error    *domain.ErrorMessage
}

// Controller controla a personalização.
type Controller struct {
	*controller.Base[State]
}

// NewController carrega o produto productID em segundo plano.
func NewController(parent context.Context, products ProductFinder, productID int64, log logger.Logger) *Controller {
	c := &Controller{
		Base: controller.NewBase(parent, State{Loading: true, Options: pricing.DefaultOptions()}, log),
	}
	c.Go(func(ctx context.Context) {
		p, err := products.FindByID(ctx, productID)
		if err == nil && p == nil {
			err = apperror.NewNotFoundError("El producto ya no está disponible.")
		}
		c.Update(func(s State) State {
			s.Loading = false
			s.Product = p
			s.Error = controller.Message(err)
			return s.recompute()
		})
	})
	return c
}

func (s State) recompute() State {
	if s.Product == nil {
		s.Estimate = 0
		return s
	}
	s.Estimate = pricing.Estimate(s.Product.PriceCLP, s.Options)
	return s
}

func (c *Controller) edit(fn func(*pricing.Options)) {
	c.Update(func(s State) State {
		fn(&s.Options)
		return s.recompute()
	})
}

func (c *Controller) SetMaterial(m pricing.Material) { c.edit(func(o *pricing.Options) { o.Material = m }) }
func (c *Controller) SetSize(sz pricing.Size)         { c.edit(func(o *pricing.Options) { o.Size = sz }) }
func (c *Controller) SetFinish(f pricing.Finish)      { c.edit(func(o *pricing.Options) { o.Finish = f }) }
func (c *Controller) SetPremiumHandles(on bool)       { c.edit(func(o *pricing.Options) { o.PremiumHandles = on }) }
func (c *Controller) SetPaddedInterior(on bool)       { c.edit(func(o *pricing.Options) { o.PaddedInterior = on }) }
func (c *Controller) SetEngraving(text string)        { c.edit(func(o *pricing.Options) { o.Engraving = text }) }
