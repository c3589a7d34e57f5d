package sqlite

import (
	"errors"
	"fmt"
)

// ErrNotFound — адресуемая строка отсутствует. Доменные репозитории
// переводят ее в свои sentinel-ошибки.
var ErrNotFound = errors.New("row not found")

// StorageError — ошибка подготовки или выполнения стейтмента. Пути записи
// обязаны пробрасывать ее наверх, защитные read-хелперы могут логировать
// и возвращать пустой результат.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError проверяет, лежит ли в цепочке ошибок сбой хранилища.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
