// Package query описывает структурированные предикаты для динамических
// WHERE-условий. Каждый вариант превращается в параметризованный SQL-фрагмент,
// конкатенация пользовательских значений в текст запроса исключена.
package query

import (
	"fmt"
	"strings"
)

type kind int

const (
	kindEq kind = iota
	kindLike
	kindBetween
	kindRaw
)

// Predicate — одно условие фильтрации. Создается только через
// конструкторы Eq/Like/Between/Raw.
type Predicate struct {
	kind   kind
	column string
	expr   string
	args   []any
}

// Eq — точное совпадение значения колонки.
func Eq(column string, value any) Predicate {
	return Predicate{kind: kindEq, column: column, args: []any{value}}
}

// Like — поиск подстроки (без учета позиции).
func Like(column string, substr string) Predicate {
	return Predicate{kind: kindLike, column: column, args: []any{"%" + substr + "%"}}
}

// Between — включающий диапазон [lo, hi].
func Between(column string, lo, hi any) Predicate {
	return Predicate{kind: kindBetween, column: column, args: []any{lo, hi}}
}

// Raw — произвольный SQL-фрагмент для условий, которые не выражаются
// структурными операторами (например, составные OR). Плейсхолдеры — `?`.
func Raw(expr string, args ...any) Predicate {
	return Predicate{kind: kindRaw, expr: expr, args: args}
}

func (p Predicate) clause() (string, []any) {
	switch p.kind {
	case kindEq:
		return p.column + " = ?", p.args
	case kindLike:
		return p.column + " LIKE ?", p.args
	case kindBetween:
		return p.column + " BETWEEN ? AND ?", p.args
	case kindRaw:
		return "(" + p.expr + ")", p.args
	default:
		panic(fmt.Sprintf("query: unknown predicate kind %d", p.kind))
	}
}

// Order — пара (колонка, направление сортировки).
type Order struct {
	Column string
	Desc   bool
}

// Options — параметры findAndCount: фильтр, сортировка и пагинация.
// Нулевое значение означает выборку без ограничений.
type Options struct {
	Where []Predicate
	Order []Order
	Take  int
	Skip  int
}

// BuildWhere собирает WHERE-клаузу из предикатов. Для пустого списка
// возвращает пустую строку.
func BuildWhere(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(preds))
	var args []any

	for _, p := range preds {
		clause, clauseArgs := p.clause()
		clauses = append(clauses, clause)
		args = append(args, clauseArgs...)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// BuildTail собирает ORDER BY / LIMIT / OFFSET.
func BuildTail(opts Options) (string, []any) {
	var sb strings.Builder
	var args []any

	if len(opts.Order) > 0 {
		parts := make([]string, 0, len(opts.Order))
		for _, o := range opts.Order {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, o.Column+" "+dir)
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}

	if opts.Take > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, opts.Take)
	}

	if opts.Skip > 0 {
		// OFFSET без LIMIT в sqlite не работает
		if opts.Take <= 0 {
			sb.WriteString(" LIMIT -1")
		}
		sb.WriteString(" OFFSET ?")
		args = append(args, opts.Skip)
	}

	return sb.String(), args
}
