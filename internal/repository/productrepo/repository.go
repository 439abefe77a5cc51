package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/cache"
	"finalfeliz/internal/pkg/database"
	"finalfeliz/internal/pkg/logger"
)

// Define a chave de cache para produtos.
const productCacheKey = "product:%d"

const productColumns = `id, name, material, price_clp, image_res, description`

// ProductRepository persiste o catálogo no PostgreSQL, com cache-aside opcional.
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Pode ser nil: leituras vão direto ao DB
	DBTimeout time.Duration
	CacheTTL  time.Duration
	feed      *database.ChangeFeed
	logger    logger.Logger
	instance  string // Dono das entradas de cache gravadas por este repositório
}

// cachedProduct guarda o produto junto da revisão da tabela em que foi lido.
// A entrada só vale para o mesmo repositório e a mesma revisão: qualquer
// mudança na tabela, local ou vinda de NOTIFY, a torna obsoleta.
type cachedProduct struct {
	Owner    string         `json:"owner"`
	Revision uint64         `json:"revision"`
	Product  domain.Product `json:"product"`
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, feed *database.ChangeFeed, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		feed:      feed,
		logger:    log,
		instance:  uuid.NewString(),
	}
}

func (r *ProductRepository) revision() uint64 {
	if r.feed == nil {
		return 0
	}
	return r.feed.Revision(database.TableProducts)
}

func (r *ProductRepository) notify() {
	if r.feed != nil {
		r.feed.Notify(database.TableProducts)
	}
}

// Save insere um produto e devolve-o com o ID gerado.
func (r *ProductRepository) Save(ctx context.Context, fields domain.ProductFields) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		INSERT INTO products (name, material, price_clp, image_res, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	p := domain.Product{
		Name:        fields.Name,
		Material:    fields.Material,
		PriceCLP:    fields.PriceCLP,
		ImageRes:    fields.ImageRes,
		Description: fields.Description,
	}
	err := r.DB.QueryRowContext(ctxTimeout, query,
		p.Name,
		p.Material,
		p.PriceCLP,
		nullString(p.ImageRes),
		nullString(p.Description),
	).Scan(&p.ID)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("failed to insert product", err)
	}

	r.notify()
	r.logger.Info("Produto salvo.", map[string]interface{}{"product_id": p.ID, "name": p.Name})
	return p, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	// Lida antes da query: uma mudança concorrente deixa a entrada já obsoleta.
	rev := r.revision()

	if r.Cache != nil {
		cachedData, err := r.Cache.Get(ctxTimeout, key)
		if err == nil {
			var entry cachedProduct
			switch {
			case json.Unmarshal([]byte(cachedData), &entry) != nil:
				r.logger.Warn("Produto em cache corrompido; lendo do DB.", map[string]interface{}{"key": key})
			case entry.Owner == r.instance && entry.Revision == rev:
				return entry.Product, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			// Erro real de cache: seguimos para o DB.
			r.logger.Warn("Falha ao ler do cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	row := r.DB.QueryRowContext(ctxTimeout, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("El producto %d no existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("failed to find product", err)
	}

	if r.Cache != nil {
		entry := cachedProduct{Owner: r.instance, Revision: rev, Product: product}
		if entryJSON, marshalErr := json.Marshal(entry); marshalErr == nil {
			if err := r.Cache.Set(ctxTimeout, key, entryJSON, r.CacheTTL); err != nil {
				r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"key": key, "error": err.Error()})
			}
		}
	}

	return product, nil
}

// FindAll lista o catálogo ordenado por nome, sem diferenciar maiúsculas.
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT `+productColumns+` FROM products ORDER BY LOWER(name), id`)
	if err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, apperror.NewDBError("failed to list products", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate products", err)
	}
	return products, nil
}

// Update grava todos os campos do produto.
func (r *ProductRepository) Update(ctx context.Context, p domain.Product) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		UPDATE products
		SET name = $1,
			material = $2,
			price_clp = $3,
			image_res = $4,
			description = $5
		WHERE id = $6`

	res, err := r.DB.ExecContext(ctxTimeout, query,
		p.Name,
		p.Material,
		p.PriceCLP,
		nullString(p.ImageRes),
		nullString(p.Description),
		p.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar produto.", err)
		return apperror.NewDBError("failed to update product", err)
	}
	if err := expectOne(res, p.ID); err != nil {
		return err
	}

	r.invalidate(ctxTimeout, p.ID)
	r.notify()
	return nil
}

// Delete remove o produto.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover produto.", err)
		return apperror.NewDBError("failed to delete product", err)
	}
	if err := expectOne(res, id); err != nil {
		return err
	}

	r.invalidate(ctxTimeout, id)
	r.notify()
	return nil
}

// Count devolve o número de produtos.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		r.logger.Error("Falha ao contar produtos.", err)
		return 0, apperror.NewDBError("failed to count products", err)
	}
	return n, nil
}

func (r *ProductRepository) invalidate(ctx context.Context, id int64) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"product_id": id, "error": err.Error()})
	}
}

func expectOne(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to read affected rows", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("El producto %d no existe.", id))
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p                     domain.Product
		imageRes, description sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Material, &p.PriceCLP, &imageRes, &description); err != nil {
		return domain.Product{}, err
	}
	p.ImageRes = imageRes.String
	p.Description = description.String
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
