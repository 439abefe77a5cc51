package productservice

import (
	"context"
	"sort"
	"strings"

	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/database"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/observable"
)

// ProductRepository define o contrato (interface) que este Serviço espera
// da camada de Persistência (DB, Cache).
type ProductRepository interface {
	Save(ctx context.Context, fields domain.ProductFields) (domain.Product, error)
	FindByID(ctx context.Context, id int64) (domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// ChangeSource entrega revisões por tabela (database.ChangeFeed).
type ChangeSource interface {
	Subscribe(t database.Table) *observable.Subscription[uint64]
}

// StarterCatalog é inserido por EnsureSeeded quando a tabela está vazia.
var StarterCatalog = []domain.ProductFields{
	{
		Name:        "Clásico Roble",
		Material:    "Roble",
		PriceCLP:    349000,
		ImageRes:    "ataud_roble",
		Description: "Ataúd tradicional de roble macizo con terminación natural.",
	},
	{
		Name:        "Elegance Blanco",
		Material:    "Lacado blanco",
		PriceCLP:    459000,
		ImageRes:    "ataud_blanco",
		Description: "Diseño sobrio lacado en blanco con interior de satén.",
	},
	{
		Name:        "Verde Esperanza",
		Material:    "Pino ecológico",
		PriceCLP:    399000,
		ImageRes:    "ataud_verde",
		Description: "Opción ecológica de pino certificado y barniz al agua.",
	},
}

// Service é o repositório de produtos visto pelos controllers.
type Service struct {
	repo    ProductRepository
	changes ChangeSource
	logger  logger.Logger
	catalog *observable.Value[domain.Catalog]
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, changes ChangeSource, log logger.Logger) *Service {
	return &Service{
		repo:    repo,
		changes: changes,
		logger:  log,
		catalog: observable.NewValue(domain.Catalog{}),
	}
}

// ObserveAll observa o catálogo ordenado por nome (sem diferenciar maiúsculas).
func (s *Service) ObserveAll() *observable.Subscription[domain.Catalog] {
	return s.catalog.Subscribe()
}

// Catalog devolve o último snapshot publicado.
func (s *Service) Catalog() domain.Catalog {
	return s.catalog.Get()
}

// Refresh relê o catálogo e o publica. Em caso de falha, a última lista boa
// é mantida e o erro segue no snapshot.
func (s *Service) Refresh(ctx context.Context) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao carregar o catálogo.", err)
		s.catalog.Update(func(prev domain.Catalog) domain.Catalog {
			return domain.Catalog{Products: prev.Products, Loaded: true, Err: apperror.AsStorage("Falha ao carregar o catálogo.", err)}
		})
		return
	}

	sortByName(products)
	s.catalog.Set(domain.Catalog{Products: products, Loaded: true})
}

// Run recarrega o catálogo a cada mudança na tabela products. Bloqueia até ctx ser cancelado.
func (s *Service) Run(ctx context.Context) {
	sub := s.changes.Subscribe(database.TableProducts)
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.C():
			if !ok {
				return
			}
			s.Refresh(ctx)
		}
	}
}

// Add apara os campos e insere o produto.
func (s *Service) Add(ctx context.Context, fields domain.ProductFields) (int64, error) {
	fields = fields.Normalize()
	if err := validate(fields.Name, fields.Material, fields.PriceCLP); err != nil {
		return 0, err
	}

	p, err := s.repo.Save(ctx, fields)
	if err != nil {
		return 0, apperror.AsStorage("Falha ao salvar produto.", err)
	}
	s.logger.Info("Produto criado.", map[string]interface{}{"product_id": p.ID})
	s.Refresh(ctx)
	return p.ID, nil
}

// Update grava o produto com os campos de texto aparados.
func (s *Service) Update(ctx context.Context, p domain.Product) error {
	normalized := domain.ProductFields{
		Name:        p.Name,
		Material:    p.Material,
		PriceCLP:    p.PriceCLP,
		ImageRes:    p.ImageRes,
		Description: p.Description,
	}.Normalize()
	if err := validate(normalized.Name, normalized.Material, normalized.PriceCLP); err != nil {
		return err
	}
	p.Name = normalized.Name
	p.Material = normalized.Material
	p.ImageRes = normalized.ImageRes
	p.Description = normalized.Description

	if err := s.repo.Update(ctx, p); err != nil {
		return apperror.AsStorage("Falha ao atualizar produto.", err)
	}
	s.Refresh(ctx)
	return nil
}

// Delete remove o produto.
func (s *Service) Delete(ctx context.Context, p domain.Product) error {
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return apperror.AsStorage("Falha ao remover produto.", err)
	}
	s.logger.Info("Produto removido.", map[string]interface{}{"product_id": p.ID})
	s.Refresh(ctx)
	return nil
}

// FindByID devolve nil, nil quando o produto não existe.
func (s *Service) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, nil
		}
		return nil, apperror.AsStorage("Falha ao buscar produto.", err)
	}
	return &p, nil
}

// Count devolve o número de produtos.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperror.AsStorage("Falha ao contar produtos.", err)
	}
	return n, nil
}

// EnsureSeeded insere o StarterCatalog se não houver produtos.
// A checagem count()==0 seguida dos inserts não é atômica: duas chamadas
// simultâneas com a tabela vazia podem duplicar o catálogo inicial.
func (s *Service) EnsureSeeded(ctx context.Context) (bool, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	for _, f := range StarterCatalog {
		if _, err := s.repo.Save(ctx, f); err != nil {
			return false, apperror.AsStorage("Falha ao inserir catálogo inicial.", err)
		}
	}
	s.logger.Info("Catálogo inicial inserido.", map[string]interface{}{"products": len(StarterCatalog)})
	s.Refresh(ctx)
	return true, nil
}

func validate(name, material string, price int64) error {
	if name == "" || material == "" {
		return apperror.NewValidationError("Nombre y material son obligatorios.")
	}
	if price < 0 {
		return apperror.NewValidationError("El precio no puede ser negativo.")
	}
	return nil
}

func sortByName(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
	})
}
