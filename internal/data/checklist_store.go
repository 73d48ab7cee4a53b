// internal/data/checklist_store.go
package data

import (
	"context"
	"encoding/json"
	"fmt"

	"kitchenback/internal/checklist"
)

// =============================================================================
// CHECKLIST STORE
// =============================================================================

// ChecklistStore persists checklists in sqlite, items as a JSON column.
// The item list is small and always read whole, so a child table buys
// nothing here.
type ChecklistStore struct{}

func NewChecklistStore() *ChecklistStore {
	return &ChecklistStore{}
}

func (s *ChecklistStore) PutChecklist(ctx context.Context, cl checklist.Checklist) error {
	itemsJSON, err := json.Marshal(cl.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal checklist items: %w", err)
	}

	const stmt = `
		INSERT INTO checklists (id, name, workshop, responsible, completed_date, items_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			workshop = excluded.workshop,
			responsible = excluded.responsible,
			completed_date = excluded.completed_date,
			items_json = excluded.items_json`

	if _, err := ExecDB(stmt, cl.ID, cl.Name, cl.Workshop, cl.Responsible, cl.CompletedDate, string(itemsJSON)); err != nil {
		return fmt.Errorf("failed to upsert checklist %s: %w", cl.ID, err)
	}
	return nil
}

func (s *ChecklistStore) DeleteChecklist(ctx context.Context, id string) error {
	if _, err := ExecDB(`DELETE FROM checklists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete checklist %s: %w", id, err)
	}
	return nil
}

func (s *ChecklistStore) Checklists(ctx context.Context) ([]checklist.Checklist, error) {
	const stmt = `
		SELECT id, name, workshop, responsible, completed_date, items_json
		FROM checklists
		ORDER BY workshop, name`

	rows, err := QueryDB(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to query checklists: %w", err)
	}
	defer rows.Close()

	var lists []checklist.Checklist
	for rows.Next() {
		var cl checklist.Checklist
		var itemsJSON string
		if err := rows.Scan(&cl.ID, &cl.Name, &cl.Workshop, &cl.Responsible, &cl.CompletedDate, &itemsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan checklist row: %w", err)
		}
		if err := json.Unmarshal([]byte(itemsJSON), &cl.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items for checklist %s: %w", cl.ID, err)
		}
		lists = append(lists, cl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checklist rows: %w", err)
	}
	return lists, nil
}
