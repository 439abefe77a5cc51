package domain

import "strings"

// Product representa o item principal do catálogo (a Entidade).
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Material    string `json:"material"`
	PriceCLP    int64  `json:"price_clp"` // Pesos inteiros, sem centavos
	ImageRes    string `json:"image_res,omitempty"`
	Description string `json:"description,omitempty"`
}

// ProductFields é o payload de criação usado pelo administrador.
type ProductFields struct {
	Name        string
	Material    string
	PriceCLP    int64
	ImageRes    string
	Description string
}

// Normalize apara os campos de texto. Uma descrição em branco vira ausente ("").
func (f ProductFields) Normalize() ProductFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Material = strings.TrimSpace(f.Material)
	f.ImageRes = strings.TrimSpace(f.ImageRes)
	f.Description = strings.TrimSpace(f.Description)
	return f
}

// Catalog é o snapshot publicado pelo serviço de produtos.
// Err != nil indica falha na última carga; Products mantém a última lista boa.
type Catalog struct {
	Products []Product
	Loaded   bool // false até a primeira tentativa de carga
	Err      error
}
