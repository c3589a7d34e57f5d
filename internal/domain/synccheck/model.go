package synccheck

import "time"

// Status — состояние проверки подтверждения синхронизации.
// pending → confirmed | failed; других переходов нет.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusFailed
}

// CheckRequest отвечает на вопрос "подтвердил ли сервер состояние
// синхронизации этой коллекции". LastSync монотонно не убывает в рамках
// одной entityName при нормальной работе.
type CheckRequest struct {
	ID         string    `json:"id"`
	EntityName string    `json:"entity_name"`
	Status     Status    `json:"status"`
	LastSync   time.Time `json:"last_sync"`
	CreatedAt  time.Time `json:"created_at"`
}
