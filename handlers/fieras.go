// ABOUTME: Fiera (event) MCP tool handlers
// ABOUTME: Implements list_fieras, create_fiera and delete_fiera with reassignment
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fieracrm/store"
)

type FieraHandlers struct {
	fieras   store.EventStore
	contacts store.ContactStore
}

func NewFieraHandlers(fieras store.EventStore, contacts store.ContactStore) *FieraHandlers {
	return &FieraHandlers{fieras: fieras, contacts: contacts}
}

type FieraOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
}

type ListFierasInput struct{}

type ListFierasOutput struct {
	Fieras []FieraOutput `json:"fieras"`
}

func (h *FieraHandlers) ListFieras(ctx context.Context, request *mcp.CallToolRequest, input ListFierasInput) (*mcp.CallToolResult, ListFierasOutput, error) {
	all, err := h.fieras.List(ctx)
	if err != nil {
		return nil, ListFierasOutput{}, fmt.Errorf("failed to list fieras: %w", err)
	}

	out := ListFierasOutput{Fieras: []FieraOutput{}}
	for _, f := range all {
		out.Fieras = append(out.Fieras, FieraOutput{ID: f.ID, Name: f.Name, Timestamp: f.Timestamp})
	}
	return nil, out, nil
}

type CreateFieraInput struct {
	Name string `json:"name" jsonschema:"Event name (required)"`
}

func (h *FieraHandlers) CreateFiera(ctx context.Context, request *mcp.CallToolRequest, input CreateFieraInput) (*mcp.CallToolResult, FieraOutput, error) {
	id, err := h.fieras.Create(ctx, input.Name)
	if err != nil {
		return nil, FieraOutput{}, fmt.Errorf("failed to create fiera: %w", err)
	}
	return nil, FieraOutput{ID: id, Name: input.Name}, nil
}

type DeleteFieraInput struct {
	ID     string `json:"id" jsonschema:"Event ID (required)"`
	MoveTo string `json:"move_to,omitempty" jsonschema:"Event ID to move associated contacts to; omit to detach them"`
}

type DeleteFieraOutput struct {
	Deleted    bool `json:"deleted"`
	Reassigned int  `json:"reassigned"`
}

// DeleteFiera reassigns every associated contact first and deletes
// the event only once the cascade has committed.
func (h *FieraHandlers) DeleteFiera(ctx context.Context, request *mcp.CallToolRequest, input DeleteFieraInput) (*mcp.CallToolResult, DeleteFieraOutput, error) {
	if input.ID == "" {
		return nil, DeleteFieraOutput{}, fmt.Errorf("id is required")
	}
	if input.MoveTo == input.ID {
		return nil, DeleteFieraOutput{}, fmt.Errorf("move_to must differ from the fiera being deleted")
	}

	all, err := h.contacts.List(ctx)
	if err != nil {
		return nil, DeleteFieraOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}
	associated := 0
	for _, c := range all {
		if c.FieraID == input.ID {
			associated++
		}
	}

	if associated > 0 {
		if err := h.contacts.ReassignFiera(ctx, input.ID, input.MoveTo); err != nil {
			return nil, DeleteFieraOutput{}, fmt.Errorf("failed to reassign contacts: %w", err)
		}
	}

	if err := h.fieras.Delete(ctx, input.ID); err != nil {
		return nil, DeleteFieraOutput{}, fmt.Errorf("failed to delete fiera: %w", err)
	}
	return nil, DeleteFieraOutput{Deleted: true, Reassigned: associated}, nil
}
