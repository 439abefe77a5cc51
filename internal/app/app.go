// Package app monta o núcleo: uma instância de store, sessão e repositórios
// por processo, passada explicitamente aos controllers.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"finalfeliz/config"
	"finalfeliz/internal/controller/admin"
	"finalfeliz/internal/controller/auth"
	"finalfeliz/internal/controller/cart"
	"finalfeliz/internal/controller/catalog"
	"finalfeliz/internal/controller/customize"
	"finalfeliz/internal/controller/profile"
	"finalfeliz/internal/pkg/cache"
	"finalfeliz/internal/pkg/database"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/ratelimit"
	"finalfeliz/internal/pkg/token"
	"finalfeliz/internal/repository/productrepo"
	"finalfeliz/internal/repository/userrepo"
	"finalfeliz/internal/service/cartservice"
	"finalfeliz/internal/service/productservice"
	"finalfeliz/internal/service/userservice"
	"finalfeliz/internal/session"
)

// App é o contexto da aplicação.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	KV       cache.Client
	Feed     *database.ChangeFeed
	Session  *session.Store
	Users    *userservice.Service
	Products *productservice.Service
	Cart     *cartservice.Service
	Logins   *ratelimit.Limiter

	logger  logger.Logger
	closers []func() error

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New abre o banco, aplica as migrações, garante o administrador,
// conecta o Redis (ou cai para memória) e restaura a sessão.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao migrar o DB: %w", err)
	}
	log.Info("Migrações aplicadas.", nil)

	// B. Chave/valor (Redis)
	kv, closeKV := openKV(cfg.RedisAddr, log)

	a := Assemble(ctx, cfg, db, kv, log)
	a.closers = append(a.closers, closeKV, db.Close)
	return a, nil
}

func openKV(addr string, log logger.Logger) (cache.Client, func() error) {
	noop := func() error { return nil }
	if addr == "" {
		log.Info("REDIS_ADDR vazio: sessão e cache em memória.", nil)
		return cache.NewMemoryClient(), noop
	}

	rc, err := cache.NewRedisClient(addr)
	if err != nil {
		// Sem Redis o app segue funcionando; a sessão só não sobrevive ao processo.
		log.Warn("Redis indisponível: usando memória.", map[string]interface{}{"addr": addr, "error": err.Error()})
		rc.Close()
		return cache.NewMemoryClient(), noop
	}
	log.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": addr})
	return rc, rc.Close
}

// Assemble liga repositórios e serviços sobre um DB já migrado.
// Ordem: Repository -> Service; os controllers são criados sob demanda.
func Assemble(ctx context.Context, cfg *config.Config, db *sql.DB, kv cache.Client, log logger.Logger) *App {
	feed := database.NewChangeFeed()

	bootCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
	database.EnsureAdmin(bootCtx, db, database.AdminAccount{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}, feed, log)
	cancel()

	tokens := token.NewService(cfg.SessionSecret, cfg.SessionTTL)
	sess := session.NewStore(kv, tokens, log)
	if id := sess.Restore(ctx); id != 0 {
		log.Info("Sessão restaurada.", map[string]interface{}{"user_id": id})
	}

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, feed, log)
	productRepo := productrepo.NewProductRepository(db, kv, cfg.DBTimeout, cfg.CacheTTL, feed, log)
	log.Debug("Repositórios inicializados.", nil)

	return &App{
		Config:   cfg,
		DB:       db,
		KV:       kv,
		Feed:     feed,
		Session:  sess,
		Users:    userservice.NewService(userRepo, sess, feed, log),
		Products: productservice.NewService(productRepo, feed, log),
		Cart:     cartservice.NewService(log),
		Logins:   ratelimit.NewLimiter(kv, cfg.LoginMaxAttempts, cfg.LoginWindow, log),
		logger:   log,
	}
}

// Start semeia o catálogo e inicia as goroutines reativas.
func (a *App) Start(ctx context.Context) error {
	if _, err := a.Products.EnsureSeeded(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.spawn(func() { a.Users.Run(runCtx) })
	a.spawn(func() { a.Products.Run(runCtx) })
	if a.Config.ListenChanges {
		a.spawn(func() {
			if err := database.Listen(runCtx, a.Config.DatabaseURL, a.Feed, a.logger); err != nil {
				a.logger.Error("Listener de mudanças encerrado.", err)
			}
		})
	}
	a.logger.Info("Núcleo iniciado.", nil)
	return nil
}

func (a *App) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// Close para as goroutines e libera DB e Redis.
func (a *App) Close() error {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()
	a.wg.Wait()

	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// --- Controllers ---

func (a *App) LoginController(ctx context.Context) *auth.LoginController {
	return auth.NewLoginController(ctx, a.Users, a.Logins, a.logger)
}

func (a *App) RegisterController(ctx context.Context) *auth.RegisterController {
	return auth.NewRegisterController(ctx, a.Users, a.logger)
}

func (a *App) CatalogController(ctx context.Context) *catalog.Controller {
	return catalog.NewController(ctx, a.Products, a.Cart, a.logger)
}

func (a *App) CustomizeController(ctx context.Context, productID int64) *customize.Controller {
	return customize.NewController(ctx, a.Products, productID, a.logger)
}

func (a *App) CartController(ctx context.Context) *cart.Controller {
	return cart.NewController(ctx, a.Cart, a.logger)
}

func (a *App) ProfileController(ctx context.Context) *profile.Controller {
	return profile.NewController(ctx, a.Users, a.logger)
}

func (a *App) AdminProductsController(ctx context.Context) *admin.ProductsController {
	return admin.NewProductsController(ctx, a.Users, a.Products, a.logger)
}

func (a *App) AdminUsersController(ctx context.Context) *admin.UsersController {
	return admin.NewUsersController(ctx, a.Users, a.Users, a.Feed, a.logger)
}
