package outbox

import "time"

// Wire-формат протокола пуша: POST /api/{collection}/push.

// WireOperation — операция в том виде, в котором она уходит на сервер.
type WireOperation struct {
	ID        int64  `json:"id"`
	RequestID string `json:"requestId"`
	Data      string `json:"data"`
	TableName string `json:"tableName"`
	Action    Action `json:"action" enum:"INSERT,UPDATE"`
	Timestamp string `json:"timestamp" format:"date-time"`
	Status    string `json:"status"`
}

// PushRequest — тело запроса пуша.
type PushRequest struct {
	RequestID  string          `json:"requestId"`
	Operations []WireOperation `json:"operations"`
}

// PushResponse — ответ сервера; успешная отправка — HTTP 201.
type PushResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Applied   int    `json:"applied,omitempty"`
	Replayed  int    `json:"replayed,omitempty"`
}

// Wire переводит батч в формат протокола. Статус всегда "pending":
// ответственность клиента заканчивается на "принято к обработке".
func (b RequestBatch) Wire() PushRequest {
	ops := make([]WireOperation, len(b.Operations))
	for i, op := range b.Operations {
		ops[i] = WireOperation{
			ID:        op.SequenceID,
			RequestID: b.RequestID,
			Data:      op.Payload,
			TableName: op.TableName,
			Action:    op.Action,
			Timestamp: op.CreatedAt.UTC().Format(time.RFC3339),
			Status:    string(StatusPending),
		}
	}

	return PushRequest{
		RequestID:  b.RequestID,
		Operations: ops,
	}
}
