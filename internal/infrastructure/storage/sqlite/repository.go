package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"possync/internal/infrastructure/storage/query"
)

const keyColumn = "_id"

// Mapper описывает двустороннее отображение сущность ⇄ строка таблицы.
// Columns перечисляет все неключевые колонки в фиксированном порядке;
// ToRow и FromRow обязаны его соблюдать. Сериализация вложенных структур
// в JSON-колонки и приведение bool ⇄ integer изолируются здесь —
// остальной код сырые значения колонок не видит.
type Mapper[T any] interface {
	Table() string
	Columns() []string
	Key(entity T) string
	ToRow(entity T) ([]any, error)
	FromRow(row RowScanner) (T, error)
}

// Repository — типизированный CRUD над одной таблицей. Create/CreateMany —
// это upsert по ключу с перезаписью всех неключевых колонок (last-write-wins
// на уровне строки), поэтому повторное применение одной и той же записи
// безопасно.
type Repository[T any] struct {
	run       preparer
	mapper    Mapper[T]
	selectSQL string
	insertSQL string
	updateSQL string
}

func NewRepository[T any](storage *Storage, mapper Mapper[T]) *Repository[T] {
	return newRepository(storage.db, mapper)
}

func newRepository[T any](run preparer, mapper Mapper[T]) *Repository[T] {
	cols := mapper.Columns()
	table := mapper.Table()

	assignments := make([]string, len(cols))
	updates := make([]string, len(cols))
	for i, c := range cols {
		assignments[i] = c + " = excluded." + c
		updates[i] = c + " = ?"
	}

	return &Repository[T]{
		run:    run,
		mapper: mapper,
		selectSQL: fmt.Sprintf("SELECT %s, %s FROM %s",
			keyColumn, strings.Join(cols, ", "), table),
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES %%s ON CONFLICT(%s) DO UPDATE SET %s",
			table, keyColumn, strings.Join(cols, ", "), keyColumn, strings.Join(assignments, ", ")),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
			table, strings.Join(updates, ", "), keyColumn),
	}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции.
func (r *Repository[T]) WithTx(tx *sql.Tx) *Repository[T] {
	return newRepository(tx, r.mapper)
}

func (r *Repository[T]) rowValues(entity T) ([]any, error) {
	row, err := r.mapper.ToRow(entity)
	if err != nil {
		return nil, fmt.Errorf("map %s row: %w", r.mapper.Table(), err)
	}
	return append([]any{r.mapper.Key(entity)}, row...), nil
}

func (r *Repository[T]) placeholders() string {
	return "(?" + strings.Repeat(", ?", len(r.mapper.Columns())) + ")"
}

// Create сохраняет сущность: вставка либо слияние по ключу.
func (r *Repository[T]) Create(ctx context.Context, entity T) (T, error) {
	args, err := r.rowValues(entity)
	if err != nil {
		var zero T
		return zero, err
	}

	if _, err := execPrepared(ctx, r.run, r.mapper.Table(),
		fmt.Sprintf(r.insertSQL, r.placeholders()), args...); err != nil {
		var zero T
		return zero, err
	}

	return entity, nil
}

// CreateMany сохраняет пакет одним многострочным стейтментом. Семантика —
// поточечное применение Create, та же идемпотентность.
func (r *Repository[T]) CreateMany(ctx context.Context, entities []T) ([]T, error) {
	if len(entities) == 0 {
		return entities, nil
	}

	placeholders := make([]string, len(entities))
	var args []any

	for i, entity := range entities {
		values, err := r.rowValues(entity)
		if err != nil {
			return nil, err
		}
		placeholders[i] = r.placeholders()
		args = append(args, values...)
	}

	if _, err := execPrepared(ctx, r.run, r.mapper.Table(),
		fmt.Sprintf(r.insertSQL, strings.Join(placeholders, ", ")), args...); err != nil {
		return nil, err
	}

	return entities, nil
}

// Update полностью перезаписывает строку по ключу. Отсутствие строки —
// ErrNotFound.
func (r *Repository[T]) Update(ctx context.Context, id string, entity T) (T, error) {
	var zero T

	row, err := r.mapper.ToRow(entity)
	if err != nil {
		return zero, fmt.Errorf("map %s row: %w", r.mapper.Table(), err)
	}

	res, err := execPrepared(ctx, r.run, r.mapper.Table(), r.updateSQL, append(row, id)...)
	if err != nil {
		return zero, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return zero, &StorageError{Op: "rows affected", Table: r.mapper.Table(), Err: err}
	}
	if affected == 0 {
		return zero, ErrNotFound
	}

	return entity, nil
}

// Delete удаляет строку по ключу; отсутствие строки не считается ошибкой.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	_, err := execPrepared(ctx, r.run, r.mapper.Table(),
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", r.mapper.Table(), keyColumn), id)
	return err
}

// DeleteAll очищает таблицу; используется при полном ресинке.
func (r *Repository[T]) DeleteAll(ctx context.Context) error {
	_, err := execPrepared(ctx, r.run, r.mapper.Table(),
		"DELETE FROM "+r.mapper.Table())
	return err
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var entity T

	err := queryRowPrepared(ctx, r.run, r.mapper.Table(),
		r.selectSQL+" WHERE "+keyColumn+" = ?",
		func(row RowScanner) error {
			var err error
			entity, err = r.mapper.FromRow(row)
			return err
		}, id)
	if err != nil {
		var zero T
		return zero, err
	}

	return entity, nil
}

// FindAll — нефильтрованный скан; рассчитан на небольшие справочники.
func (r *Repository[T]) FindAll(ctx context.Context) ([]T, error) {
	return r.scanMany(ctx, r.selectSQL)
}

// FindAndCount возвращает страницу выборки и размер всего
// отфильтрованного множества (независимо от take/skip).
func (r *Repository[T]) FindAndCount(ctx context.Context, opts query.Options) ([]T, int, error) {
	where, whereArgs := query.BuildWhere(opts.Where)
	tail, tailArgs := query.BuildTail(opts)

	entities, err := r.scanMany(ctx, r.selectSQL+where+tail, append(whereArgs, tailArgs...)...)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = queryRowPrepared(ctx, r.run, r.mapper.Table(),
		"SELECT COUNT(*) FROM "+r.mapper.Table()+where,
		func(row RowScanner) error {
			return row.Scan(&total)
		}, whereArgs...)
	if err != nil {
		return nil, 0, err
	}

	return entities, total, nil
}

func (r *Repository[T]) scanMany(ctx context.Context, q string, args ...any) ([]T, error) {
	rows, err := queryPrepared(ctx, r.run, r.mapper.Table(), q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []T
	for rows.Next() {
		entity, err := r.mapper.FromRow(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan", Table: r.mapper.Table(), Err: err}
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate", Table: r.mapper.Table(), Err: err}
	}

	return entities, nil
}
