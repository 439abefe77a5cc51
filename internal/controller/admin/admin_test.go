package admin

import (
	"context"
	"errors"
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
	"finalfeliz/internal/pkg/observable"
)

const wait, tick = time.Second, 5 * time.Millisecond

type fakeGate struct {
	current *observable.Value[*domain.User]
}

func newGate(u *domain.User) *fakeGate {
	return &fakeGate{current: observable.NewValue(u)}
}

func (g *fakeGate) ObserveCurrentUser() *observable.Subscription[*domain.User] {
	return g.current.Subscribe()
}

func (g *fakeGate) RequireAdmin() error {
	if u := g.current.Get(); u == nil || !u.IsAdmin {
		return apperror.NewForbiddenError("Solo un administrador puede hacer esto.")
	}
	return nil
}

type MockProducts struct {
	mock.Mock
	catalog *observable.Value[domain.Catalog]
}

func newMockProducts() *MockProducts {
	return &MockProducts{catalog: observable.NewValue(domain.Catalog{})}
}

func (m *MockProducts) ObserveAll() *observable.Subscription[domain.Catalog] {
	return m.catalog.Subscribe()
}

func (m *MockProducts) Add(ctx context.Context, fields domain.ProductFields) (int64, error) {
	args := m.Called(ctx, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProducts) Update(ctx context.Context, p domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProducts) Delete(ctx context.Context, p domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

var (
	admin    = &domain.User{ID: 1, Name: "Admin", Email: "admin@finalfeliz.cl", IsAdmin: true}
	customer = &domain.User{ID: 2, Name: "Ana", Email: "ana@finalfeliz.cl"}
)

func TestProducts_ForbiddenForCustomers(t *testing.T) {
	products := newMockProducts()
	c := NewProductsController(context.Background(), newGate(customer), products, logger.NewNop())
	defer c.Close()

	_, ok := c.Add(context.Background(), domain.ProductFields{Name: "X", Material: "Pino"})
	assert.False(t, ok)
	require.NotNil(t, c.State().Error)
	assert.Equal(t, "FORBIDDEN", c.State().Error.Category)
	assert.False(t, c.Delete(context.Background(), domain.Product{ID: 1}))
	products.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	products.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProducts_AdminCRUD(t *testing.T) {
	products := newMockProducts()
	fields := domain.ProductFields{Name: "Sereno", Material: "Caoba", PriceCLP: 510000}
	products.On("Add", mock.Anything, fields).Return(int64(4), nil)
	products.On("Update", mock.Anything, domain.Product{ID: 4, Name: "Sereno", Material: "Caoba", PriceCLP: 1}).Return(nil)
	products.On("Delete", mock.Anything, domain.Product{ID: 4}).Return(apperror.NewNotFoundError("El producto 4 no existe."))

	c := NewProductsController(context.Background(), newGate(admin), products, logger.NewNop())
	defer c.Close()
	assert.Eventually(t, func() bool { return c.State().IsAdmin }, wait, tick)

	id, ok := c.Add(context.Background(), fields)
	require.True(t, ok)
	assert.Equal(t, int64(4), id)
	assert.Equal(t, EventSaved, <-c.Events())

	assert.True(t, c.Update(context.Background(), domain.Product{ID: 4, Name: "Sereno", Material: "Caoba", PriceCLP: 1}))
	assert.Nil(t, c.State().Error)

	assert.False(t, c.Delete(context.Background(), domain.Product{ID: 4}))
	require.NotNil(t, c.State().Error)
	assert.Equal(t, "El producto 4 no existe.", c.State().Error.Message)
	products.AssertExpectations(t)
}

func TestProducts_FollowsCatalog(t *testing.T) {
	products := newMockProducts()
	c := NewProductsController(context.Background(), newGate(admin), products, logger.NewNop())
	defer c.Close()

	products.catalog.Set(domain.Catalog{Products: []domain.Product{{ID: 1}}, Loaded: true, Err: errors.New("x")})

	assert.Eventually(t, func() bool {
		st := c.State()
		return !st.Loading && len(st.Products) == 1 && st.Banner != nil
	}, wait, tick)
}

// memoryUsers é um Users em memória que notifica o feed, como o repositório SQL.
type memoryUsers struct {
	mu    sync.Mutex
	users map[int64]domain.User
	feed  *database.ChangeFeed
}

func newMemoryUsers(feed *database.ChangeFeed, users ...*domain.User) *memoryUsers {
	m := &memoryUsers{users: map[int64]domain.User{}, feed: feed}
	for _, u := range users {
		m.users[u.ID] = *u
	}
	return m
}

func (m *memoryUsers) List(context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for id := int64(1); id <= 10; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryUsers) SetAdmin(_ context.Context, id int64, isAdmin bool) error {
	m.mu.Lock()
	u, ok := m.users[id]
	if ok {
		u.IsAdmin = isAdmin
		m.users[id] = u
	}
	m.mu.Unlock()
	if !ok {
		return apperror.NewNotFoundError("No encontramos ese usuario.")
	}
	m.feed.Notify(database.TableUsers)
	return nil
}

func (m *memoryUsers) Update(_ context.Context, u domain.User) error {
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
	m.feed.Notify(database.TableUsers)
	return nil
}

func (m *memoryUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	delete(m.users, id)
	m.mu.Unlock()
	m.feed.Notify(database.TableUsers)
	return nil
}

func (m *memoryUsers) get(id int64) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func TestUsers_ListForAdmin(t *testing.T) {
	feed := database.NewChangeFeed()
	users := newMemoryUsers(feed, admin, customer)
	c := NewUsersController(context.Background(), newGate(admin), users, feed, logger.NewNop())
	defer c.Close()

	assert.Eventually(t, func() bool { return len(c.State().Users) == 2 }, wait, tick)
	assert.Equal(t, int64(1), c.State().Self)
}

func TestUsers_ForbiddenForCustomers(t *testing.T) {
	feed := database.NewChangeFeed()
	users := newMemoryUsers(feed, admin, customer)
	c := NewUsersController(context.Background(), newGate(customer), users, feed, logger.NewNop())
	defer c.Close()

	assert.Eventually(t, func() bool {
		st := c.State()
		return !st.Loading && st.Banner != nil
	}, wait, tick)
	assert.Empty(t, c.State().Users)
	assert.Equal(t, "FORBIDDEN", c.State().Banner.Category)

	assert.False(t, c.SetAdmin(context.Background(), 2, true))
	assert.False(t, users.get(2).IsAdmin)
}

func TestUsers_SetAdminAndDelete(t *testing.T) {
	feed := database.NewChangeFeed()
	users := newMemoryUsers(feed, admin, customer)
	c := NewUsersController(context.Background(), newGate(admin), users, feed, logger.NewNop())
	defer c.Close()
	require.Eventually(t, func() bool { return c.State().Self == 1 }, wait, tick)

	require.True(t, c.SetAdmin(context.Background(), 2, true))
	assert.True(t, users.get(2).IsAdmin)
	assert.Eventually(t, func() bool {
		for _, u := range c.State().Users {
			if u.ID == 2 {
				return u.IsAdmin
			}
		}
		return false
	}, wait, tick)

	assert.False(t, c.Delete(context.Background(), 1))
	assert.Equal(t, "No puedes eliminar tu propia cuenta.", c.State().Error.Message)
	assert.False(t, c.SetAdmin(context.Background(), 1, false))

	require.True(t, c.Delete(context.Background(), 2))
	assert.Eventually(t, func() bool { return len(c.State().Users) == 1 }, wait, tick)
}
