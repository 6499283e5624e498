// ABOUTME: Fiera CLI commands
// ABOUTME: Event listing, creation and deletion with the reassignment cascade
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// ListFierasCommand lists every fiera.
func ListFierasCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("list-fieras", flag.ExitOnError)
	_ = fs.Parse(args)

	fieras, err := env.Fieras.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list fieras: %w", err)
	}
	if len(fieras) == 0 {
		fmt.Println("No fieras found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCREATED\tID")
	_, _ = fmt.Fprintln(w, "----\t-------\t--")
	for _, f := range fieras {
		created := time.UnixMilli(f.Timestamp).Format("2006-01-02")
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, created, f.ID)
	}
	_ = w.Flush()
	return nil
}

// CreateFieraCommand creates a new fiera.
func CreateFieraCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("create-fiera", flag.ExitOnError)
	name := fs.String("name", "", "Fiera name (required)")
	_ = fs.Parse(args)

	if *name == "" && len(fs.Args()) > 0 {
		*name = fs.Args()[0]
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	id, err := env.Fieras.Create(context.Background(), *name)
	if err != nil {
		return fmt.Errorf("failed to create fiera: %w", err)
	}
	fmt.Printf("✓ Fiera created: %s (ID: %s)\n", *name, id)
	return nil
}

// DeleteFieraCommand deletes a fiera. When contacts still reference it
// the caller must choose a disposition: --reassign-to moves them to
// another fiera, --detach leaves them without one. Reassignment runs
// before the delete; a failed cascade aborts the whole operation.
func DeleteFieraCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("delete-fiera", flag.ExitOnError)
	reassignTo := fs.String("reassign-to", "", "Fiera ID to move associated contacts to")
	detach := fs.Bool("detach", false, "Detach associated contacts instead of moving them")
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("fiera ID is required")
	}
	id := fs.Args()[0]

	if *reassignTo == id {
		return fmt.Errorf("--reassign-to must name a different fiera")
	}
	if *reassignTo != "" && *detach {
		return fmt.Errorf("--reassign-to and --detach are mutually exclusive")
	}

	associated, err := contactsForFiera(env, id)
	if err != nil {
		return fmt.Errorf("failed to count associated contacts: %w", err)
	}

	if associated > 0 {
		if *reassignTo == "" && !*detach {
			return fmt.Errorf("%d contact(s) reference this fiera; pass --reassign-to <id> or --detach", associated)
		}
		if err := env.Contacts.ReassignFiera(context.Background(), id, *reassignTo); err != nil {
			return fmt.Errorf("failed to reassign contacts: %w", err)
		}
		if *detach {
			fmt.Printf("✓ Detached %d contact(s)\n", associated)
		} else {
			fmt.Printf("✓ Moved %d contact(s) to %s\n", associated, *reassignTo)
		}
	}

	if err := env.Fieras.Delete(context.Background(), id); err != nil {
		return fmt.Errorf("failed to delete fiera: %w", err)
	}
	fmt.Printf("✓ Fiera deleted: %s\n", id)
	return nil
}
