package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

// preparer — общий знаменатель *sql.DB и *sql.Tx: все запросы проходят
// через подготовленные стейтменты.
type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// RowScanner — то, что умеют и *sql.Row, и *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// execPrepared подготавливает стейтмент, выполняет его и гарантированно
// освобождает ресурс на любом пути выхода.
func execPrepared(ctx context.Context, p preparer, table, query string, args ...any) (sql.Result, error) {
	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, &StorageError{Op: "prepare", Table: table, Err: err}
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, &StorageError{Op: "exec", Table: table, Err: err}
	}

	return res, nil
}

// queryPrepared выполняет выборку через подготовленный стейтмент.
// Закрытие стейтмента до вычитывания rows безопасно: database/sql
// держит его живым, пока открыт курсор.
func queryPrepared(ctx context.Context, p preparer, table, query string, args ...any) (*sql.Rows, error) {
	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, &StorageError{Op: "prepare", Table: table, Err: err}
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Table: table, Err: err}
	}

	return rows, nil
}

// queryRowPrepared выполняет выборку одной строки; scan вызывается до
// освобождения стейтмента. Отсутствие строки — ErrNotFound, а не сбой.
func queryRowPrepared(ctx context.Context, p preparer, table, query string, scan func(row RowScanner) error, args ...any) error {
	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return &StorageError{Op: "prepare", Table: table, Err: err}
	}
	defer stmt.Close()

	if err := scan(stmt.QueryRowContext(ctx, args...)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &StorageError{Op: "scan", Table: table, Err: err}
	}

	return nil
}
