// Package pricing calcula o preço estimado de um ataúd personalizado.
package pricing

import (
	"math"
	"strings"
)

// Material do ataúd.
type Material string

const (
	MaterialPino     Material = "Pino"
	MaterialRoble    Material = "Roble"
	MaterialCaoba    Material = "Caoba"
	MaterialMetalico Material = "Metálico"
)

// Size do ataúd.
type Size string

const (
	SizeCompacto Size = "Compacto"
	SizeEstandar Size = "Estándar"
	SizeGrande   Size = "Grande"
)

// Finish é o acabamento.
type Finish string

const (
	FinishMate      Finish = "Mate"
	FinishSatinado  Finish = "Satinado"
	FinishBrillante Finish = "Brillante"
)

// Taxas fixas, em CLP.
const (
	PremiumHandlesFee int64 = 90000
	PaddedInteriorFee int64 = 130000
	EngravingFee      int64 = 50000
)

var (
	materialFactor = map[Material]float64{
		MaterialPino:     1.00,
		MaterialRoble:    1.10,
		MaterialCaoba:    1.35,
		MaterialMetalico: 1.15,
	}
	sizeFactor = map[Size]float64{
		SizeCompacto: 0.90,
		SizeEstandar: 1.00,
		SizeGrande:   1.20,
	}
	finishFactor = map[Finish]float64{
		FinishMate:      1.00,
		FinishSatinado:  1.05,
		FinishBrillante: 1.10,
	}
)

// Materials, Sizes e Finishes listam as opções na ordem de exibição.
var (
	Materials = []Material{MaterialPino, MaterialRoble, MaterialCaoba, MaterialMetalico}
	Sizes     = []Size{SizeCompacto, SizeEstandar, SizeGrande}
	Finishes  = []Finish{FinishMate, FinishSatinado, FinishBrillante}
)

// Options é a seleção feita na tela de personalização.
type Options struct {
	Material       Material
	Size           Size
	Finish         Finish
	PremiumHandles bool
	PaddedInterior bool
	Engraving      string
}

// DefaultOptions é a seleção inicial: Pino, Estándar, Mate, sem extras.
func DefaultOptions() Options {
	return Options{Material: MaterialPino, Size: SizeEstandar, Finish: FinishMate}
}

// Factor devolve o multiplicador do material; opções desconhecidas valem 1.
func (m Material) Factor() float64 { return lookup(materialFactor, m) }

// Factor devolve o multiplicador do tamanho; opções desconhecidas valem 1.
func (s Size) Factor() float64 { return lookup(sizeFactor, s) }

// Factor devolve o multiplicador do acabamento; opções desconhecidas valem 1.
func (f Finish) Factor() float64 { return lookup(finishFactor, f) }

func lookup[K comparable](table map[K]float64, k K) float64 {
	if f, ok := table[k]; ok {
		return f
	}
	return 1
}

// Estimate = round(base × material × tamanho × acabamento) + extras + gravação.
// O arredondamento é para o inteiro mais próximo (meio para longe do zero).
// Base negativa conta como 0.
func Estimate(base int64, opts Options) int64 {
	if base < 0 {
		base = 0
	}
	scaled := float64(base) * opts.Material.Factor() * opts.Size.Factor() * opts.Finish.Factor()
	total := int64(math.Round(scaled))

	if opts.PremiumHandles {
		total += PremiumHandlesFee
	}
	if opts.PaddedInterior {
		total += PaddedInteriorFee
	}
	if strings.TrimSpace(opts.Engraving) != "" {
		total += EngravingFee
	}
	return total
}
