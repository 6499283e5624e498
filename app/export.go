// ABOUTME: JSON backup export and import of contact records
// ABOUTME: Exports the currently filtered set; import treats every element as new
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"fieracrm/models"
)

// ExportContacts writes the contacts visible under the active event
// filter as a JSON array, identities and timestamps included, exactly
// as persisted. The text search does not narrow the export.
func (c *Controller) ExportContacts(w io.Writer) error {
	c.mu.Lock()
	active := c.activeFiera
	out := []models.Contact{}
	for _, contact := range c.contactCache {
		if contact.MatchesFiera(active) {
			out = append(out, contact)
		}
	}
	c.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

var unsafeFilename = regexp.MustCompile(`\s+`)

// ExportFileName suggests a backup filename: a full-backup name when
// unfiltered, otherwise one carrying the fiera name.
func (c *Controller) ExportFileName() string {
	c.mu.Lock()
	active := c.activeFiera
	fieras := c.fieraCache
	c.mu.Unlock()

	if active == models.AllFieras {
		return "fieracrm_full_backup.json"
	}
	for _, f := range fieras {
		if f.ID == active {
			name := unsafeFilename.ReplaceAllString(strings.TrimSpace(f.Name), "_")
			return fmt.Sprintf("fieracrm_%s.json", name)
		}
	}
	return "fieracrm_export.json"
}

// ImportFromReader parses a JSON array of contacts and hands it to
// ImportContacts. A payload that is not an array is rejected before
// the confirmation step.
func (c *Controller) ImportFromReader(ctx context.Context, r io.Reader, confirm func(count int) bool) (int, error) {
	var records []models.Contact
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("invalid import file: %w", err)
	}
	return c.ImportContacts(ctx, records, confirm)
}
