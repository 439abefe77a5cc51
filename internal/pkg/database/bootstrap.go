package database

import (
	"context"
	"database/sql"

	"finalfeliz/internal/pkg/logger"
)

// AdminAccount é a conta administrativa fixa garantida a cada abertura do DB.
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin insere a conta administrativa se ela não existir.
// É best-effort: erros são registrados em debug e descartados.
func EnsureAdmin(ctx context.Context, db *sql.DB, admin AdminAccount, feed *ChangeFeed, log logger.Logger) {
	const query = `
		INSERT INTO users (name, email, password, phone, is_admin)
		VALUES ($1, $2, $3, NULL, TRUE)
		ON CONFLICT (email) DO NOTHING`

	res, err := db.ExecContext(ctx, query, admin.Name, admin.Email, admin.Password)
	if err != nil {
		log.Debug("Bootstrap do administrador ignorado.", map[string]interface{}{"error": err.Error()})
		return
	}

	if n, _ := res.RowsAffected(); n > 0 {
		log.Info("Conta administrativa criada.", map[string]interface{}{"email": admin.Email})
		if feed != nil {
			feed.Notify(TableUsers)
		}
	}
}
