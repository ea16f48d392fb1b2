package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"metrology-records/internal/domain/certnumber"
)

// CertStateStore mantiene el secuencial en una única fila autoritativa.
// Update toma un lock de fila para que dos instancias no emitan el mismo número.
type CertStateStore struct {
	db *sql.DB
}

func NewCertStateStore(db *sql.DB) *CertStateStore {
	return &CertStateStore{db: db}
}

const certStateRowID = 1

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func loadCertState(ctx context.Context, q queryRower, suffix string) (certnumber.State, error) {
	var (
		seq      sql.NullInt64
		semester sql.NullString
		year     sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT last_sequential_number, last_semester, last_year
		FROM certificate_sequence
		WHERE id = $1`+suffix, certStateRowID).Scan(&seq, &semester, &year)
	if errors.Is(err, sql.ErrNoRows) {
		return certnumber.State{}, nil
	}
	if err != nil {
		return certnumber.State{}, err
	}

	st := certnumber.State{LastSemester: semester.String, LastYear: year.String}
	if seq.Valid && seq.Int64 > 0 {
		st.LastSequentialNumber = int(seq.Int64)
	}
	return st, nil
}

func saveCertState(ctx context.Context, e execer, st certnumber.State) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO certificate_sequence (id, last_sequential_number, last_semester, last_year, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			last_sequential_number = EXCLUDED.last_sequential_number,
			last_semester = EXCLUDED.last_semester,
			last_year = EXCLUDED.last_year,
			updated_at = now()
	`, certStateRowID, st.LastSequentialNumber, st.LastSemester, st.LastYear)
	return err
}

func (s *CertStateStore) Load(ctx context.Context) (certnumber.State, error) {
	return loadCertState(ctx, s.db, "")
}

func (s *CertStateStore) Save(ctx context.Context, st certnumber.State) error {
	return saveCertState(ctx, s.db, st)
}

func (s *CertStateStore) LoadLastUsed(ctx context.Context) (string, error) {
	var v sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT last_used FROM certificate_sequence WHERE id = $1
	`, certStateRowID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v.String, nil
}

func (s *CertStateStore) SaveLastUsed(ctx context.Context, number string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO certificate_sequence (id, last_used, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET last_used = EXCLUDED.last_used, updated_at = now()
	`, certStateRowID, number)
	return err
}

func (s *CertStateStore) Update(ctx context.Context, fn func(certnumber.State) (certnumber.State, error)) (certnumber.State, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return certnumber.State{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// la fila puede no existir todavía: la creamos para poder lockearla
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO certificate_sequence (id) VALUES ($1) ON CONFLICT (id) DO NOTHING
	`, certStateRowID); err != nil {
		return certnumber.State{}, err
	}

	cur, err := loadCertState(ctx, tx, " FOR UPDATE")
	if err != nil {
		return certnumber.State{}, err
	}

	next, err := fn(cur)
	if err != nil {
		return certnumber.State{}, err
	}

	if err := saveCertState(ctx, tx, next); err != nil {
		return certnumber.State{}, err
	}
	if err := tx.Commit(); err != nil {
		return certnumber.State{}, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}
