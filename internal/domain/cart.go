package domain

// CartItem é uma linha do carrinho: referência ao produto e quantidade (> 0).
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal = preço × quantidade.
func (i CartItem) LineTotal() int64 {
	return i.Product.PriceCLP * int64(i.Quantity)
}
