package cartservice

import (
	"finalfeliz/internal/domain"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
)

// Service é o carrinho em memória do processo: uma lista ordenada de linhas,
// publicada por inteiro depois de cada mutação.
type Service struct {
	logger logger.Logger
	items  *observable.Value[[]domain.CartItem]
}

// NewService cria um carrinho vazio.
func NewService(log logger.Logger) *Service {
	return &Service{
		logger: log,
		items:  observable.NewValue[[]domain.CartItem](nil),
	}
}

// Observe observa o snapshot do carrinho. Os slices publicados nunca são alterados.
func (s *Service) Observe() *observable.Subscription[[]domain.CartItem] {
	return s.items.Subscribe()
}

// Items devolve uma cópia do snapshot atual.
func (s *Service) Items() []domain.CartItem {
	return append([]domain.CartItem(nil), s.items.Get()...)
}

// Add soma qty à linha do produto, ou cria uma nova linha no fim.
// qty <= 0 não altera o carrinho.
func (s *Service) Add(product domain.Product, qty int) {
	if qty <= 0 {
		return
	}
	s.items.Update(func(prev []domain.CartItem) []domain.CartItem {
		next := clone(prev)
		for i := range next {
			if next[i].Product.ID == product.ID {
				next[i].Quantity += qty
				return next
			}
		}
		return append(next, domain.CartItem{Product: product, Quantity: qty})
	})
	s.logger.Debug("Produto adicionado ao carrinho.", map[string]interface{}{"product_id": product.ID, "quantity": qty})
}

// AddOne equivale a Add(product, 1).
func (s *Service) AddOne(product domain.Product) {
	s.Add(product, 1)
}

// UpdateQuantity troca a quantidade da linha. qty <= 0 remove a linha.
func (s *Service) UpdateQuantity(productID int64, qty int) {
	if qty <= 0 {
		s.Remove(productID)
		return
	}
	s.items.Update(func(prev []domain.CartItem) []domain.CartItem {
		next := clone(prev)
		for i := range next {
			if next[i].Product.ID == productID {
				next[i].Quantity = qty
				return next
			}
		}
		return prev
	})
}

// Remove descarta a linha do produto, se existir.
func (s *Service) Remove(productID int64) {
	s.items.Update(func(prev []domain.CartItem) []domain.CartItem {
		next := make([]domain.CartItem, 0, len(prev))
		for _, it := range prev {
			if it.Product.ID != productID {
				next = append(next, it)
			}
		}
		return next
	})
}

// Clear esvazia o carrinho.
func (s *Service) Clear() {
	s.items.Set(nil)
	s.logger.Debug("Carrinho esvaziado.", nil)
}

// Total soma preço × quantidade de todas as linhas.
func (s *Service) Total() int64 {
	return Total(s.items.Get())
}

// Count soma as quantidades.
func (s *Service) Count() int {
	return Count(s.items.Get())
}

// Total calcula o total de um snapshot.
func Total(items []domain.CartItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// Count soma as quantidades de um snapshot.
func Count(items []domain.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func clone(items []domain.CartItem) []domain.CartItem {
	return append(make([]domain.CartItem, 0, len(items)+1), items...)
}
