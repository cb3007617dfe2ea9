package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lembretes/internal/reminder"
)

const (
	SnapshotVersion = "1.0"

	// exportedAt uses millisecond precision, matching earlier export files.
	exportTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Snapshot is the export file format.
type Snapshot struct {
	Version     string               `json:"version"`
	ExportedAt  string               `json:"exportedAt"`
	StorageType string               `json:"storageType"`
	Count       int                  `json:"count"`
	Data        []*reminder.Reminder `json:"data"`
}

type ImportResult struct {
	Success  bool   `json:"success"`
	Imported int    `json:"imported"`
	Message  string `json:"message"`
}

func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	b := s.active()
	items, err := s.load(ctx, b)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Version:     SnapshotVersion,
		ExportedAt:  s.now().UTC().Format(exportTimeLayout),
		StorageType: b.Type(),
		Count:       len(items),
		Data:        items,
	}, nil
}

func (s *Service) ExportJSON(ctx context.Context) ([]byte, error) {
	snap, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Import replaces the whole collection with the items of an exported
// document. Every item is validated first; a single invalid item rejects the
// batch and the backend is not touched.
func (s *Service) Import(ctx context.Context, data []byte) (ImportResult, error) {
	items, err := parseSnapshot(data, s.now())
	if err != nil {
		return ImportResult{Message: err.Error()}, err
	}

	b := s.active()
	if err := s.persist(ctx, b, items); err != nil {
		return ImportResult{Message: fmt.Sprintf("Erro ao salvar em %s", b.Type())}, err
	}

	s.logger.Info("lembretes imported", zap.Int("count", len(items)), zap.String("storage", b.Type()))
	return ImportResult{
		Success:  true,
		Imported: len(items),
		Message:  fmt.Sprintf("%d lembretes importados com sucesso (%s)", len(items), b.Type()),
	}, nil
}

// parseSnapshot decodes the data array of an exported document. Items with a
// bad shape and repeats of an id already seen both count as invalid.
func parseSnapshot(data []byte, now time.Time) ([]*reminder.Reminder, error) {
	var doc struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ImportError{Reason: fmt.Sprintf("Erro ao importar dados: %v", err)}
	}

	var raws []json.RawMessage
	if len(doc.Data) == 0 || json.Unmarshal(doc.Data, &raws) != nil || raws == nil {
		return nil, &ImportError{Reason: "Formato de dados inválido"}
	}

	items := make([]*reminder.Reminder, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	invalid := 0
	for _, raw := range raws {
		r, ok := decodeItem(raw, now)
		if !ok {
			invalid++
			continue
		}
		if _, dup := seen[r.ID]; dup {
			invalid++
			continue
		}
		seen[r.ID] = struct{}{}
		items = append(items, r)
	}
	if invalid > 0 {
		return nil, &ImportError{Invalid: invalid}
	}
	return items, nil
}

// decodeItem checks the shape of one exported item before decoding it:
// a non-empty string id, a string text and a boolean completion flag.
// Completed items without a completion stamp get their creation time, or now
// when that is missing too.
func decodeItem(raw json.RawMessage, now time.Time) (*reminder.Reminder, bool) {
	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
		return nil, false
	}
	if id, ok := probe["id"].(string); !ok || id == "" {
		return nil, false
	}
	if _, ok := probe["texto"].(string); !ok {
		return nil, false
	}
	if _, ok := probe["concluido"].(bool); !ok {
		return nil, false
	}

	var r reminder.Reminder
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false
	}
	switch {
	case !r.Completed:
		r.CompletedAt = nil
	case r.CompletedAt == nil:
		stamp := r.CreatedAt
		if stamp.IsZero() {
			stamp = now
		}
		r.CompletedAt = &stamp
	}
	return &r, true
}

// ExportFilename is the suggested download name for a snapshot taken at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("lembretes-backup-%s.json", t.UTC().Format("2006-01-02"))
}
