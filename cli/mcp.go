// ABOUTME: MCP server subcommand
// ABOUTME: Exposes the contact and fiera tools over stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fieracrm/handlers"
)

// MCPCommand starts the MCP server on stdio.
func MCPCommand(env *Env) error {
	env.Logger.Info("starting MCP server")

	contactHandlers := handlers.NewContactHandlers(env.Contacts)
	fieraHandlers := handlers.NewFieraHandlers(env.Fieras, env.Contacts)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "fieracrm",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search contacts by name or company, optionally filtered by fiera",
	}, contactHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact, optionally associated with a fiera",
	}, contactHandlers.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update fields of an existing contact",
	}, contactHandlers.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact by ID",
	}, contactHandlers.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_fieras",
		Description: "List every fiera (trade-show event)",
	}, fieraHandlers.ListFieras)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_fiera",
		Description: "Create a new fiera",
	}, fieraHandlers.CreateFiera)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_fiera",
		Description: "Delete a fiera, moving or detaching its contacts first",
	}, fieraHandlers.DeleteFiera)

	return server.Run(context.Background(), &mcp.StdioTransport{})
}
