// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements find_contacts, add_contact, update_contact and delete_contact tools
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fieracrm/models"
	"fieracrm/store"
)

type ContactHandlers struct {
	contacts store.ContactStore
}

func NewContactHandlers(contacts store.ContactStore) *ContactHandlers {
	return &ContactHandlers{contacts: contacts}
}

type ContactOutput struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	Company   string `json:"company,omitempty"`
	Website   string `json:"website,omitempty"`
	Address   string `json:"address,omitempty"`
	Note      string `json:"note,omitempty"`
	FieraID   string `json:"fiera_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func contactToOutput(c models.Contact) ContactOutput {
	return ContactOutput{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Role:      c.Role,
		Company:   c.Company,
		Website:   c.Website,
		Address:   c.Address,
		Note:      c.Note,
		FieraID:   c.FieraID,
		Timestamp: c.Timestamp,
	}
}

type FindContactsInput struct {
	Query   string `json:"query,omitempty" jsonschema:"Search query (matches name and company)"`
	FieraID string `json:"fiera_id,omitempty" jsonschema:"Filter by event (fiera) ID"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, request *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	all, err := h.contacts.List(ctx)
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	out := FindContactsOutput{Contacts: []ContactOutput{}}
	for _, c := range all {
		if input.FieraID != "" && c.FieraID != input.FieraID {
			continue
		}
		if !c.MatchesSearch(input.Query) {
			continue
		}
		out.Contacts = append(out.Contacts, contactToOutput(c))
		if len(out.Contacts) == limit {
			break
		}
	}
	return nil, out, nil
}

type AddContactInput struct {
	FirstName string `json:"first_name,omitempty" jsonschema:"Contact first name"`
	LastName  string `json:"last_name,omitempty" jsonschema:"Contact last name"`
	Email     string `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone     string `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Role      string `json:"role,omitempty" jsonschema:"Job title or role"`
	Company   string `json:"company,omitempty" jsonschema:"Company name"`
	Website   string `json:"website,omitempty" jsonschema:"Company website URL"`
	Address   string `json:"address,omitempty" jsonschema:"Physical address"`
	Note      string `json:"note,omitempty" jsonschema:"Free-text note"`
	FieraID   string `json:"fiera_id,omitempty" jsonschema:"Event (fiera) this contact belongs to"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, request *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.FirstName == "" && input.LastName == "" && input.Company == "" {
		return nil, ContactOutput{}, fmt.Errorf("at least one of first_name, last_name or company is required")
	}

	contact := models.Contact{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      input.Role,
		Company:   input.Company,
		Website:   input.Website,
		Address:   input.Address,
		Note:      input.Note,
		FieraID:   input.FieraID,
	}

	id, err := h.contacts.Create(ctx, contact)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}

	contact.ID = id
	return nil, contactToOutput(contact), nil
}

type UpdateContactInput struct {
	ID        string  `json:"id" jsonschema:"Contact ID (required)"`
	FirstName *string `json:"first_name,omitempty" jsonschema:"New first name"`
	LastName  *string `json:"last_name,omitempty" jsonschema:"New last name"`
	Email     *string `json:"email,omitempty" jsonschema:"New email address"`
	Phone     *string `json:"phone,omitempty" jsonschema:"New phone number"`
	Role      *string `json:"role,omitempty" jsonschema:"New role"`
	Company   *string `json:"company,omitempty" jsonschema:"New company name"`
	Website   *string `json:"website,omitempty" jsonschema:"New website"`
	Address   *string `json:"address,omitempty" jsonschema:"New address"`
	Note      *string `json:"note,omitempty" jsonschema:"New note"`
	FieraID   *string `json:"fiera_id,omitempty" jsonschema:"New event ID, empty string to detach"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, request *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.ID == "" {
		return nil, ContactOutput{}, fmt.Errorf("id is required")
	}

	all, err := h.contacts.List(ctx)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	var contact *models.Contact
	for i := range all {
		if all[i].ID == input.ID {
			contact = &all[i]
			break
		}
	}
	if contact == nil {
		return nil, ContactOutput{}, fmt.Errorf("no contact with id %s", input.ID)
	}

	applyString(&contact.FirstName, input.FirstName)
	applyString(&contact.LastName, input.LastName)
	applyString(&contact.Email, input.Email)
	applyString(&contact.Phone, input.Phone)
	applyString(&contact.Role, input.Role)
	applyString(&contact.Company, input.Company)
	applyString(&contact.Website, input.Website)
	applyString(&contact.Address, input.Address)
	applyString(&contact.Note, input.Note)
	applyString(&contact.FieraID, input.FieraID)

	if err := h.contacts.Update(ctx, input.ID, *contact); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return nil, contactToOutput(*contact), nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

type DeleteContactInput struct {
	ID string `json:"id" jsonschema:"Contact ID (required)"`
}

type DeleteContactOutput struct {
	Deleted bool `json:"deleted"`
}

func (h *ContactHandlers) DeleteContact(ctx context.Context, request *mcp.CallToolRequest, input DeleteContactInput) (*mcp.CallToolResult, DeleteContactOutput, error) {
	if input.ID == "" {
		return nil, DeleteContactOutput{}, fmt.Errorf("id is required")
	}
	if err := h.contacts.Delete(ctx, input.ID); err != nil {
		return nil, DeleteContactOutput{}, fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil, DeleteContactOutput{Deleted: true}, nil
}
