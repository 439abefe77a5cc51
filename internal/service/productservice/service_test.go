package productservice_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/database"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, fields domain.ProductFields) (domain.Product, error) {
	args := m.Called(ctx, fields)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, p domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// memoryProducts é um repositório em memória com ids auto-incrementais.
type memoryProducts struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.Product
}

func (r *memoryProducts) Save(_ context.Context, f domain.ProductFields) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p := domain.Product{ID: r.nextID, Name: f.Name, Material: f.Material, PriceCLP: f.PriceCLP, ImageRes: f.ImageRes, Description: f.Description}
	r.rows = append(r.rows, p)
	return p, nil
}

func (r *memoryProducts) FindByID(_ context.Context, id int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("El producto %d no existe.", id))
}

func (r *memoryProducts) FindAll(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Product(nil), r.rows...), nil
}

func (r *memoryProducts) Update(_ context.Context, p domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == p.ID {
			r.rows[i] = p
			return nil
		}
	}
	return apperror.NewNotFoundError("missing")
}

func (r *memoryProducts) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFoundError("missing")
}

func (r *memoryProducts) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}

func newMemoryService() (*productservice.Service, *memoryProducts, *database.ChangeFeed) {
	repo := &memoryProducts{}
	feed := database.NewChangeFeed()
	return productservice.NewService(repo, feed, logger.NewNop()), repo, feed
}

func TestEnsureSeeded_Idempotent(t *testing.T) {
	svc, _, _ := newMemoryService()
	ctx := context.Background()

	seeded, err := svc.EnsureSeeded(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	seeded, err = svc.EnsureSeeded(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
	n, _ = svc.Count(ctx)
	assert.Equal(t, 3, n)
}

func TestEnsureSeeded_PublishesStarterCatalog(t *testing.T) {
	svc, _, _ := newMemoryService()
	_, err := svc.EnsureSeeded(context.Background())
	require.NoError(t, err)

	cat := svc.Catalog()
	require.Len(t, cat.Products, 3)
	assert.True(t, cat.Loaded)
	assert.Equal(t, "Clásico Roble", cat.Products[0].Name)
	assert.EqualValues(t, 349000, cat.Products[0].PriceCLP)
	assert.Equal(t, "Elegance Blanco", cat.Products[1].Name)
	assert.EqualValues(t, 459000, cat.Products[1].PriceCLP)
	assert.Equal(t, "Verde Esperanza", cat.Products[2].Name)
	assert.EqualValues(t, 399000, cat.Products[2].PriceCLP)
}

func TestAdd_TrimsFieldsAndCollapsesBlankDescription(t *testing.T) {
	svc, repo, _ := newMemoryService()

	id, err := svc.Add(context.Background(), domain.ProductFields{
		Name:        "  Sereno  ",
		Material:    " Caoba ",
		PriceCLP:    510000,
		Description: "   ",
	})
	require.NoError(t, err)

	p, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Sereno", p.Name)
	assert.Equal(t, "Caoba", p.Material)
	assert.Empty(t, p.Description)
}

func TestAdd_RejectsNegativePrice(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, database.NewChangeFeed(), logger.NewNop())

	_, err := svc.Add(context.Background(), domain.ProductFields{Name: "X", Material: "Pino", PriceCLP: -1})

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestObserveAll_OrderedByNameCaseInsensitive(t *testing.T) {
	svc, _, _ := newMemoryService()
	ctx := context.Background()
	sub := svc.ObserveAll()
	defer sub.Cancel()

	first := <-sub.C()
	assert.False(t, first.Loaded)

	for _, name := range []string{"verde", "Ámbar", "azul", "Blanco"} {
		_, err := svc.Add(ctx, domain.ProductFields{Name: name, Material: "Pino", PriceCLP: 1})
		require.NoError(t, err)
	}

	cat := <-sub.C()
	names := make([]string, 0, len(cat.Products))
	for _, p := range cat.Products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"azul", "Blanco", "verde", "Ámbar"}, names)
}

func TestUpdateAndDelete_RefreshSnapshot(t *testing.T) {
	svc, _, _ := newMemoryService()
	ctx := context.Background()
	id, err := svc.Add(ctx, domain.ProductFields{Name: "Nube", Material: "Pino", PriceCLP: 100})
	require.NoError(t, err)

	p, err := svc.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)

	p.PriceCLP = 150
	p.Description = " Nuevo "
	require.NoError(t, svc.Update(ctx, *p))
	assert.EqualValues(t, 150, svc.Catalog().Products[0].PriceCLP)
	assert.Equal(t, "Nuevo", svc.Catalog().Products[0].Description)

	require.NoError(t, svc.Delete(ctx, *p))
	assert.Empty(t, svc.Catalog().Products)

	missing, err := svc.FindByID(ctx, id)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRefresh_FailureKeepsLastGoodList(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, database.NewChangeFeed(), logger.NewNop())
	ctx := context.Background()

	good := []domain.Product{{ID: 1, Name: "A"}}
	mockRepo.On("FindAll", mock.Anything).Return(good, nil).Once()
	mockRepo.On("FindAll", mock.Anything).Return([]domain.Product(nil), errors.New("database connection lost")).Once()

	svc.Refresh(ctx)
	svc.Refresh(ctx)

	cat := svc.Catalog()
	assert.Equal(t, good, cat.Products)
	require.Error(t, cat.Err)
	assert.IsType(t, &apperror.StorageError{}, cat.Err)
	mockRepo.AssertExpectations(t)
}

func TestFindByID_StorageError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, database.NewChangeFeed(), logger.NewNop())
	mockRepo.On("FindByID", mock.Anything, int64(4)).Return(domain.Product{}, errors.New("timeout"))

	p, err := svc.FindByID(context.Background(), 4)

	assert.Nil(t, p)
	assert.IsType(t, &apperror.StorageError{}, err)
}

func TestRun_ReloadsOnExternalChange(t *testing.T) {
	svc, repo, feed := newMemoryService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	assert.Eventually(t, func() bool { return svc.Catalog().Loaded }, time.Second, 5*time.Millisecond)

	// Escrita feita por outro processo, sem passar pelo serviço.
	_, err := repo.Save(ctx, domain.ProductFields{Name: "Externo", Material: "Pino", PriceCLP: 1})
	require.NoError(t, err)
	feed.Notify(database.TableProducts)

	assert.Eventually(t, func() bool { return len(svc.Catalog().Products) == 1 }, time.Second, 5*time.Millisecond)
}
