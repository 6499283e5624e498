// ABOUTME: Contact CLI commands
// ABOUTME: Listing, scanning and deleting contacts from the terminal
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
)

// ListContactsCommand lists contacts, optionally filtered by query and fiera.
func ListContactsCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("list-contacts", flag.ExitOnError)
	query := fs.String("query", "", "Search by name or company")
	fiera := fs.String("fiera", "", "Filter by fiera ID")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	contacts, err := env.Contacts.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	fieraNames := map[string]string{}
	if fieras, err := env.Fieras.List(context.Background()); err == nil {
		for _, f := range fieras {
			fieraNames[f.ID] = f.Name
		}
	}

	shown := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tPHONE\tCOMPANY\tFIERA\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----\t-------\t-----\t--")

	for _, c := range contacts {
		if *fiera != "" && c.FieraID != *fiera {
			continue
		}
		if !c.MatchesSearch(*query) {
			continue
		}
		fieraName := "-"
		if c.FieraID != "" {
			fieraName = fieraNames[c.FieraID]
			if fieraName == "" {
				fieraName = c.FieraID
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			orDash(c.DisplayName()), orDash(c.Email), orDash(c.Phone),
			orDash(c.Company), fieraName, c.ID)
		shown++
		if shown == *limit {
			break
		}
	}
	_ = w.Flush()

	if shown == 0 {
		fmt.Println("No contacts found")
		return nil
	}
	fmt.Printf("\nTotal: %d contact(s)\n", shown)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ScanCommand extracts a contact from a business-card image. The draft
// is printed for review; --save persists it immediately.
func ScanCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	fiera := fs.String("fiera", "", "Fiera ID to associate the new contact with")
	save := fs.Bool("save", false, "Persist the extracted contact without review")
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("image path is required")
	}

	image, err := os.ReadFile(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	card, err := env.Extractor.Extract(context.Background(), image)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	contact := card.Contact(*fiera)
	if !*save {
		payload, err := json.MarshalIndent(contact, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
		fmt.Fprintln(os.Stderr, "\nRe-run with --save to persist this contact")
		return nil
	}

	id, err := env.Contacts.Create(context.Background(), contact)
	if err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}
	fmt.Printf("✓ Contact created: %s (ID: %s)\n", contact.DisplayName(), id)
	return nil
}

// DeleteContactCommand deletes a contact by ID.
func DeleteContactCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("delete-contact", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("contact ID is required")
	}
	id := fs.Args()[0]

	if err := env.Contacts.Delete(context.Background(), id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	fmt.Printf("✓ Contact deleted: %s\n", id)
	return nil
}

// contactsForFiera counts contacts referencing a fiera.
func contactsForFiera(env *Env, fieraID string) (int, error) {
	contacts, err := env.Contacts.List(context.Background())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range contacts {
		if c.FieraID == fieraID {
			n++
		}
	}
	return n, nil
}
