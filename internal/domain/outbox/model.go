package outbox

import (
	"encoding/json"
	"time"
)

// Action — тип мутации, поддерживаемый протоколом пуша.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
)

func (a Action) Valid() bool {
	return a == ActionInsert || a == ActionUpdate
}

// Status — жизненный цикл операции в аутбоксе. Операция остается pending,
// пока сервер явно не примет батч: упавший или прерванный пуш ничего
// не теряет.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Operation — одна отложенная мутация. Payload самодостаточен: батч можно
// реиграть без внешнего контекста. Пара (RequestID, SequenceID) — ключ
// идемпотентности, повторная отправка не применяется сервером дважды.
type Operation struct {
	ID         int64     `json:"-"`
	SequenceID int64     `json:"sequence_id"`
	RequestID  string    `json:"request_id"`
	TableName  string    `json:"table_name"`
	Action     Action    `json:"action"`
	Payload    string    `json:"payload"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// RequestBatch — единица отправки: операции одной коллекции под общим
// идентификатором запроса. Сервер принимает или отклоняет батч целиком.
type RequestBatch struct {
	RequestID  string
	TableName  string
	Operations []Operation
}

type insertDocument struct {
	Document any `json:"document"`
}

type updateDocument struct {
	Filter any `json:"filter"`
	Update any `json:"update"`
}

// InsertPayload сериализует полный документ после мутации в формат
// {"insertOne":{"document":...}}.
func InsertPayload(document any) (string, error) {
	data, err := json.Marshal(map[string]insertDocument{
		"insertOne": {Document: document},
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UpdatePayload сериализует фильтр и изменение в формат
// {"updateOne":{"filter":...,"update":...}}.
func UpdatePayload(filter, update any) (string, error) {
	data, err := json.Marshal(map[string]updateDocument{
		"updateOne": {Filter: filter, Update: update},
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
