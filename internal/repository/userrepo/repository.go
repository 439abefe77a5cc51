package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finalfeliz/internal/domain"
	apperror "finalfeliz/internal/errors"
	"finalfeliz/internal/pkg/database"
	"finalfeliz/internal/pkg/logger"
)

const userColumns = `id, name, email, password, phone, is_admin`

// UserRepository implementa a persistência de usuários no PostgreSQL.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	feed      *database.ChangeFeed
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, feed *database.ChangeFeed, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		feed:      feed,
		logger:    logger,
	}
}

func (r *UserRepository) notify() {
	if r.feed != nil {
		r.feed.Notify(database.TableUsers)
	}
}

// Save insere um novo usuário e devolve-o com o ID gerado.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		INSERT INTO users (name, email, password, phone, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		user.Name,
		user.Email,
		user.Password,
		nullString(user.Phone),
		user.IsAdmin,
	).Scan(&user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			r.logger.Info("Email já cadastrado.", map[string]interface{}{"email": user.Email})
			return domain.User{}, apperror.NewDuplicateEmailError(user.Email)
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user", err)
	}

	r.notify()
	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return user, nil
}

// FindByEmail busca um usuário pelo email (comparação exata).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := r.DB.QueryRowContext(ctxTimeout, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Usuário não encontrado no DB por email.", map[string]interface{}{"email": email})
			return domain.User{}, apperror.NewNotFoundError("No encontramos una cuenta con ese correo.")
		}
		r.logger.Error("Falha ao buscar usuário por email no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by email", err)
	}
	return user, nil
}

// FindByID busca um usuário pelo ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := r.DB.QueryRowContext(ctxTimeout, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuario %d no existe.", id))
		}
		r.logger.Error("Falha ao buscar usuário por ID no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by id", err)
	}
	return user, nil
}

// FindAll lista todos os usuários por ordem de criação.
func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		r.logger.Error("Falha ao listar usuários.", err)
		return nil, apperror.NewDBError("failed to list users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate users", err)
	}
	return users, nil
}

// Update grava nome, email, senha, telefone e flag de admin.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			password = $3,
			phone = $4,
			is_admin = $5
		WHERE id = $6`

	res, err := r.DB.ExecContext(ctxTimeout, query,
		user.Name,
		user.Email,
		user.Password,
		nullString(user.Phone),
		user.IsAdmin,
		user.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperror.NewDuplicateEmailError(user.Email)
		}
		r.logger.Error("Falha ao atualizar usuário.", err)
		return apperror.NewDBError("failed to update user", err)
	}
	if err := r.expectOne(res, user.ID); err != nil {
		return err
	}

	r.notify()
	r.logger.Info("Usuário atualizado.", map[string]interface{}{"user_id": user.ID})
	return nil
}

// SetAdmin liga ou desliga o privilégio de administrador.
func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `UPDATE users SET is_admin = $1 WHERE id = $2`, isAdmin, id)
	if err != nil {
		r.logger.Error("Falha ao alterar privilégio.", err)
		return apperror.NewDBError("failed to set admin flag", err)
	}
	if err := r.expectOne(res, id); err != nil {
		return err
	}

	r.notify()
	r.logger.Info("Privilégio de administrador alterado.", map[string]interface{}{"user_id": id, "is_admin": isAdmin})
	return nil
}

// Delete remove o usuário. Não há filhos para cascatear.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover usuário.", err)
		return apperror.NewDBError("failed to delete user", err)
	}
	if err := r.expectOne(res, id); err != nil {
		return err
	}

	r.notify()
	r.logger.Info("Usuário removido.", map[string]interface{}{"user_id": id})
	return nil
}

func (r *UserRepository) expectOne(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to read affected rows", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuario %d no existe.", id))
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u     domain.User
		phone sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &phone, &u.IsAdmin); err != nil {
		return domain.User{}, err
	}
	u.Phone = phone.String
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
