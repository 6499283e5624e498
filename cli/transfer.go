// ABOUTME: Backup CLI commands
// ABOUTME: JSON export and count-confirmed import of the contact collection
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"fieracrm/models"
)

// ExportCommand writes the contact collection to a JSON file. With
// --fiera only the matching subset is exported; the search filter of
// the interactive views never narrows a backup.
func ExportCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fiera := fs.String("fiera", "", "Export only contacts of this fiera ID")
	out := fs.String("out", "", "Output file (default fieracrm_full_backup.json)")
	_ = fs.Parse(args)

	contacts, err := env.Contacts.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	exported := []models.Contact{}
	for _, c := range contacts {
		if *fiera != "" && c.FieraID != *fiera {
			continue
		}
		exported = append(exported, c)
	}

	path := *out
	if path == "" {
		path = "fieracrm_full_backup.json"
		if *fiera != "" {
			path = fmt.Sprintf("fieracrm_%s.json", *fiera)
		}
	}

	payload, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	fmt.Printf("✓ Exported %d contact(s) to %s\n", len(exported), path)
	return nil
}

// ImportCommand reads a JSON backup and creates every record as a new
// contact. Identities in the file are discarded; the import is
// confirmed against the record count before anything is written.
func ImportCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("backup file is required")
	}

	payload, err := os.ReadFile(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	var records []models.Contact
	if err := json.Unmarshal(payload, &records); err != nil {
		return fmt.Errorf("backup is not a contact array: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("Backup is empty, nothing to import")
		return nil
	}

	if !*yes && !confirm(fmt.Sprintf("Import %d contact(s) as new records?", len(records))) {
		fmt.Println("Import cancelled")
		return nil
	}

	if err := env.Contacts.BatchCreate(context.Background(), records); err != nil {
		return fmt.Errorf("import failed (some records may have been written): %w", err)
	}
	fmt.Printf("✓ Imported %d contact(s)\n", len(records))
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
