package userrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/database"
	"finalfeliz/internal/pkg/logger"
)

var columns = []string{"id", "name", "email", "password", "phone", "is_admin"}

func newRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock, *database.ChangeFeed) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	feed := database.NewChangeFeed()
	return NewUserRepository(db, time.Second, feed, logger.NewNop()), mock, feed
}

func TestSave_ReturnsGeneratedIDAndNotifies(t *testing.T) {
	repo, mock, feed := newRepo(t)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Ana", "ana@finalfeliz.cl", "Secreta1!", sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	u, err := repo.Save(context.Background(), domain.User{Name: "Ana", Email: "ana@finalfeliz.cl", Password: "Secreta1!"})

	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, uint64(1), feed.Revision(database.TableUsers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_UniqueViolationIsDuplicateEmail(t *testing.T) {
	repo, mock, feed := newRepo(t)
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Save(context.Background(), domain.User{Email: "ana@finalfeliz.cl"})

	assert.True(t, apperror.Is(err, apperror.KindDuplicateEmail))
	assert.Zero(t, feed.Revision(database.TableUsers))
}

func TestFindByEmail(t *testing.T) {
	repo, mock, _ := newRepo(t)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("ana@finalfeliz.cl").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(3, "Ana", "ana@finalfeliz.cl", "x", nil, true))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("nadie@finalfeliz.cl").
		WillReturnRows(sqlmock.NewRows(columns))

	u, err := repo.FindByEmail(context.Background(), "ana@finalfeliz.cl")
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: 3, Name: "Ana", Email: "ana@finalfeliz.cl", Password: "x", IsAdmin: true}, u)

	_, err = repo.FindByEmail(context.Background(), "nadie@finalfeliz.cl")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_DriverErrorIsStorage(t *testing.T) {
	repo, mock, _ := newRepo(t)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).WithArgs(int64(1)).WillReturnError(errors.New("conn reset"))

	_, err := repo.FindByID(context.Background(), 1)

	assert.True(t, apperror.Is(err, apperror.KindStorage))
}

func TestFindAll(t *testing.T) {
	repo, mock, _ := newRepo(t)
	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "Admin", "admin@finalfeliz.cl", "Admin123!", nil, true).
			AddRow(2, "Ana", "ana@finalfeliz.cl", "x", "912345678", false))

	users, err := repo.FindAll(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "912345678", users[1].Phone)
	assert.Empty(t, users[0].Phone)
}

func TestUpdate(t *testing.T) {
	repo, mock, feed := newRepo(t)
	u := domain.User{ID: 2, Name: "Ana", Email: "admin@finalfeliz.cl"}

	mock.ExpectExec(`UPDATE users`).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.True(t, apperror.Is(repo.Update(context.Background(), u), apperror.KindDuplicateEmail))
	assert.True(t, apperror.Is(repo.Update(context.Background(), u), apperror.KindNotFound))
	assert.NoError(t, repo.Update(context.Background(), u))
	assert.Equal(t, uint64(1), feed.Revision(database.TableUsers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAdminAndDelete(t *testing.T) {
	repo, mock, feed := newRepo(t)
	mock.ExpectExec(`UPDATE users SET is_admin = \$1 WHERE id = \$2`).WithArgs(true, int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetAdmin(context.Background(), 2, true))
	require.NoError(t, repo.Delete(context.Background(), 2))
	assert.True(t, apperror.Is(repo.Delete(context.Background(), 2), apperror.KindNotFound))
	assert.Equal(t, uint64(2), feed.Revision(database.TableUsers))
	assert.NoError(t, mock.ExpectationsWereMet())
}
