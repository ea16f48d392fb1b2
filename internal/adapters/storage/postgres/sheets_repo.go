package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"metrology-records/internal/domain/emergency"
	"metrology-records/internal/domain/safetysheets"
)

// filterBuilder arma el WHERE dinámico con placeholders $N.
type filterBuilder struct {
	sb   strings.Builder
	args []any
}

func (b *filterBuilder) next() int { return len(b.args) + 1 }

func (b *filterBuilder) eq(col, v string) {
	if v == "" {
		return
	}
	b.sb.WriteString(fmt.Sprintf(" AND %s = $%d", col, b.next()))
	b.args = append(b.args, v)
}

func (b *filterBuilder) ilike(col, v string) {
	if v == "" {
		return
	}
	b.sb.WriteString(fmt.Sprintf(" AND %s ILIKE $%d", col, b.next()))
	b.args = append(b.args, "%"+v+"%")
}

func (b *filterBuilder) dateRange(col string, from, to *time.Time) {
	if from != nil {
		b.sb.WriteString(fmt.Sprintf(" AND %s >= $%d", col, b.next()))
		b.args = append(b.args, *from)
	}
	if to != nil {
		b.sb.WriteString(fmt.Sprintf(" AND %s <= $%d", col, b.next()))
		b.args = append(b.args, *to)
	}
}

func (b *filterBuilder) orderAndLimit(order string, limit int) {
	b.sb.WriteString(" ORDER BY " + order)
	if limit > 0 {
		b.sb.WriteString(fmt.Sprintf(" LIMIT $%d", b.next()))
		b.args = append(b.args, limit)
	}
}

// ---- FDU / FISPQ ----

type SafetySheetsRepo struct {
	db *sql.DB
}

func NewSafetySheetsRepo(db *sql.DB) *SafetySheetsRepo {
	return &SafetySheetsRepo{db: db}
}

const sheetColumns = `
	id, produto, fabricante, numero_cas, setor, tipo_risco,
	validade, arquivo_url, user_id, criado_em`

// table solo acepta los Kind conocidos; el nombre nunca viene del request.
func sheetTable(kind safetysheets.Kind) (string, error) {
	if !kind.IsValid() {
		return "", fmt.Errorf("unknown sheet kind %q", kind)
	}
	return kind.Collection(), nil
}

func (r *SafetySheetsRepo) Create(ctx context.Context, s safetysheets.Sheet) error {
	table, err := sheetTable(s.Kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO `+table+` (`+sheetColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		s.ID,
		s.Produto,
		s.Fabricante,
		s.NumeroCas,
		s.Setor,
		s.TipoRisco,
		s.Validade,
		s.ArquivoURL,
		s.UserID,
		s.CriadoEm,
	)
	return err
}

func (r *SafetySheetsRepo) GetByID(ctx context.Context, kind safetysheets.Kind, id string) (safetysheets.Sheet, error) {
	table, err := sheetTable(kind)
	if err != nil {
		return safetysheets.Sheet{}, err
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+sheetColumns+` FROM `+table+` WHERE id = $1`, id)
	s, err := scanSafetySheet(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return safetysheets.Sheet{}, safetysheets.ErrNotFound
	}
	return s, err
}

func (r *SafetySheetsRepo) Update(ctx context.Context, s safetysheets.Sheet) error {
	table, err := sheetTable(s.Kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET
			produto = $2,
			fabricante = $3,
			numero_cas = $4,
			setor = $5,
			tipo_risco = $6,
			validade = $7,
			arquivo_url = $8
		WHERE id = $1
	`,
		s.ID,
		s.Produto,
		s.Fabricante,
		s.NumeroCas,
		s.Setor,
		s.TipoRisco,
		s.Validade,
		s.ArquivoURL,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return safetysheets.ErrNotFound
	}
	return nil
}

func (r *SafetySheetsRepo) Delete(ctx context.Context, kind safetysheets.Kind, id string) error {
	table, err := sheetTable(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return safetysheets.ErrNotFound
	}
	return nil
}

func (r *SafetySheetsRepo) List(ctx context.Context, kind safetysheets.Kind, f safetysheets.ListFilter) ([]safetysheets.Sheet, error) {
	table, err := sheetTable(kind)
	if err != nil {
		return nil, err
	}

	b := &filterBuilder{}
	b.sb.WriteString(`SELECT ` + sheetColumns + ` FROM ` + table + ` WHERE 1=1`)
	b.ilike("produto", f.Produto)
	b.ilike("fabricante", f.Fabricante)
	b.eq("numero_cas", f.NumeroCas)
	b.eq("setor", f.Setor)
	b.eq("tipo_risco", f.TipoRisco)
	b.dateRange("validade", f.ValidadeFrom, f.ValidadeTo)
	b.orderAndLimit("criado_em DESC", f.Limit)

	rows, err := r.db.QueryContext(ctx, b.sb.String(), b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]safetysheets.Sheet, 0)
	for rows.Next() {
		s, err := scanSafetySheet(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSafetySheet(sc scanner, kind safetysheets.Kind) (safetysheets.Sheet, error) {
	s := safetysheets.Sheet{Kind: kind}
	err := sc.Scan(
		&s.ID,
		&s.Produto,
		&s.Fabricante,
		&s.NumeroCas,
		&s.Setor,
		&s.TipoRisco,
		&s.Validade,
		&s.ArquivoURL,
		&s.UserID,
		&s.CriadoEm,
	)
	return s, err
}

// ---- Fichas de emergência ----

type EmergencyRepo struct {
	db *sql.DB
}

func NewEmergencyRepo(db *sql.DB) *EmergencyRepo {
	return &EmergencyRepo{db: db}
}

const emergencyColumns = `
	id, nome, produto, numero_onu, classe_risco, setor,
	validade, arquivo_url, user_id, criado_em`

func (r *EmergencyRepo) Create(ctx context.Context, s emergency.Sheet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fichas_emergencia (`+emergencyColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		s.ID,
		s.Nome,
		s.Produto,
		s.NumeroOnu,
		s.ClasseRisco,
		s.Setor,
		s.Validade,
		s.ArquivoURL,
		s.UserID,
		s.CriadoEm,
	)
	return err
}

func (r *EmergencyRepo) GetByID(ctx context.Context, id string) (emergency.Sheet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+emergencyColumns+` FROM fichas_emergencia WHERE id = $1`, id)
	s, err := scanEmergencySheet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return emergency.Sheet{}, emergency.ErrNotFound
	}
	return s, err
}

func (r *EmergencyRepo) Update(ctx context.Context, s emergency.Sheet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fichas_emergencia
		SET
			nome = $2,
			produto = $3,
			numero_onu = $4,
			classe_risco = $5,
			setor = $6,
			validade = $7,
			arquivo_url = $8
		WHERE id = $1
	`,
		s.ID,
		s.Nome,
		s.Produto,
		s.NumeroOnu,
		s.ClasseRisco,
		s.Setor,
		s.Validade,
		s.ArquivoURL,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return emergency.ErrNotFound
	}
	return nil
}

func (r *EmergencyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fichas_emergencia WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return emergency.ErrNotFound
	}
	return nil
}

func (r *EmergencyRepo) List(ctx context.Context, f emergency.ListFilter) ([]emergency.Sheet, error) {
	b := &filterBuilder{}
	b.sb.WriteString(`SELECT ` + emergencyColumns + ` FROM fichas_emergencia WHERE 1=1`)
	b.ilike("nome", f.Nome)
	b.ilike("produto", f.Produto)
	b.eq("numero_onu", f.NumeroOnu)
	b.eq("classe_risco", f.ClasseRisco)
	b.eq("setor", f.Setor)
	b.dateRange("validade", f.ValidadeFrom, f.ValidadeTo)
	b.orderAndLimit("criado_em DESC", f.Limit)

	rows, err := r.db.QueryContext(ctx, b.sb.String(), b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]emergency.Sheet, 0)
	for rows.Next() {
		s, err := scanEmergencySheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanEmergencySheet(sc scanner) (emergency.Sheet, error) {
	var s emergency.Sheet
	err := sc.Scan(
		&s.ID,
		&s.Nome,
		&s.Produto,
		&s.NumeroOnu,
		&s.ClasseRisco,
		&s.Setor,
		&s.Validade,
		&s.ArquivoURL,
		&s.UserID,
		&s.CriadoEm,
	)
	return s, err
}
