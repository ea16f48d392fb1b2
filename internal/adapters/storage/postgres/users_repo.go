package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"metrology-records/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `id, email, nome, sobrenome, tipo_usuario, matricula, created_at`

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) Upsert(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO usuarios (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			nome = EXCLUDED.nome,
			sobrenome = EXCLUDED.sobrenome,
			tipo_usuario = EXCLUDED.tipo_usuario,
			matricula = EXCLUDED.matricula
	`,
		u.ID,
		u.Email,
		u.Nome,
		u.Sobrenome,
		string(u.Role),
		u.Matricula,
		u.CreatedAt,
	)
	return err
}

func (r *UsersRepo) List(ctx context.Context, f users.ListFilter) ([]users.User, error) {
	b := &filterBuilder{}
	b.sb.WriteString(`SELECT ` + userColumns + ` FROM usuarios WHERE 1=1`)
	b.eq("tipo_usuario", string(f.Role))
	if q := strings.TrimSpace(f.Query); q != "" {
		n := b.next()
		b.sb.WriteString(fmt.Sprintf(" AND (email ILIKE $%d OR nome ILIKE $%d)", n, n))
		b.args = append(b.args, "%"+q+"%")
	}
	b.orderAndLimit("nome ASC", clampLimit(f.Limit, 50, 200))

	rows, err := r.db.QueryContext(ctx, b.sb.String(), b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(s scanner) (users.User, error) {
	var u users.User
	var role string
	if err := s.Scan(&u.ID, &u.Email, &u.Nome, &u.Sobrenome, &role, &u.Matricula, &u.CreatedAt); err != nil {
		return users.User{}, err
	}
	u.Role = users.Role(role)
	return u, nil
}
