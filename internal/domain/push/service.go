package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"possync/internal/domain/outbox"
)

// Servicer — прием батчей от терминалов.
type Servicer interface {
	// ProcessBatch валидирует и применяет батч. Батч применяется целиком
	// либо не применяется вовсе.
	ProcessBatch(ctx context.Context, collection string, req outbox.PushRequest) (*outbox.PushResponse, error)
}

// Коллекции, которые терминалы имеют право пушить.
var allowedCollections = map[string]struct{}{
	"device_users":    {},
	"printers":        {},
	"print_templates": {},
	"sections":        {},
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

func (s *Service) ProcessBatch(ctx context.Context, collection string, req outbox.PushRequest) (*outbox.PushResponse, error) {
	if err := validate(collection, req); err != nil {
		return nil, err
	}

	result, err := s.repo.ApplyBatch(ctx, collection, req.Operations)
	if err != nil {
		return nil, fmt.Errorf("apply batch %s: %w", req.RequestID, err)
	}

	s.log.Info("batch applied",
		"collection", collection,
		"request_id", req.RequestID,
		"applied", result.Applied,
		"replayed", result.Replayed,
	)

	return &outbox.PushResponse{
		Status:    "Ok",
		RequestID: req.RequestID,
		Applied:   result.Applied,
		Replayed:  result.Replayed,
	}, nil
}

// validate отсекает негодный батч до открытия транзакции.
func validate(collection string, req outbox.PushRequest) error {
	if _, ok := allowedCollections[collection]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if req.RequestID == "" {
		return ErrEmptyRequestID
	}
	if len(req.Operations) == 0 {
		return ErrEmptyBatch
	}

	for _, op := range req.Operations {
		if op.RequestID != req.RequestID {
			return fmt.Errorf("%w: operation %d carries %s", ErrRequestIDMismatch, op.ID, op.RequestID)
		}
		if !op.Action.Valid() {
			return fmt.Errorf("%w: operation %d action %s", ErrMalformedOperation, op.ID, op.Action)
		}
		if _, err := Decode(op); err != nil {
			return fmt.Errorf("operation %d: %w", op.ID, err)
		}
	}

	return nil
}

// Mutation — разобранный payload операции.
type Mutation struct {
	// Document заполнен для INSERT
	Document json.RawMessage
	// Filter и Update заполнены для UPDATE
	Filter map[string]any
	Update json.RawMessage
}

type wirePayload struct {
	InsertOne *struct {
		Document json.RawMessage `json:"document"`
	} `json:"insertOne"`
	UpdateOne *struct {
		Filter map[string]any  `json:"filter"`
		Update json.RawMessage `json:"update"`
	} `json:"updateOne"`
}

// Decode разбирает payload операции и сверяет его форму с действием.
func Decode(op outbox.WireOperation) (Mutation, error) {
	var payload wirePayload
	if err := json.Unmarshal([]byte(op.Data), &payload); err != nil {
		return Mutation{}, fmt.Errorf("%w: %v", ErrMalformedOperation, err)
	}

	switch op.Action {
	case outbox.ActionInsert:
		if payload.InsertOne == nil || len(payload.InsertOne.Document) == 0 {
			return Mutation{}, fmt.Errorf("%w: INSERT without insertOne.document", ErrMalformedOperation)
		}
		return Mutation{Document: payload.InsertOne.Document}, nil

	case outbox.ActionUpdate:
		if payload.UpdateOne == nil || len(payload.UpdateOne.Update) == 0 {
			return Mutation{}, fmt.Errorf("%w: UPDATE without updateOne.update", ErrMalformedOperation)
		}
		if _, ok := payload.UpdateOne.Filter["_id"]; !ok {
			return Mutation{}, fmt.Errorf("%w: UPDATE filter without _id", ErrMalformedOperation)
		}
		return Mutation{
			Filter: payload.UpdateOne.Filter,
			Update: payload.UpdateOne.Update,
		}, nil

	default:
		return Mutation{}, fmt.Errorf("%w: action %s", ErrMalformedOperation, op.Action)
	}
}

// DocumentID извлекает ключ документа мутации: _id документа для INSERT,
// _id фильтра для UPDATE.
func DocumentID(m Mutation) (string, error) {
	if m.Document != nil {
		var doc struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(m.Document, &doc); err != nil || doc.ID == "" {
			return "", fmt.Errorf("%w: document without id", ErrMalformedOperation)
		}
		return doc.ID, nil
	}

	id, ok := m.Filter["_id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: filter _id is not a string", ErrMalformedOperation)
	}
	return id, nil
}
