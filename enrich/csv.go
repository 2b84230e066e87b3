package enrich

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Lead is one input record to enrich.
type Lead struct {
	Name           string
	Email          string
	CompanyName    string
	CompanyWebsite string
}

// Row is one wide output record: column name to rendered value.
type Row map[string]string

// columnAliases maps each canonical input field to the header spellings seen
// across exported lead lists. First match in the input header wins.
var columnAliases = map[string][]string{
	"name":            {"name", "contact_full_name", "full_name"},
	"email":           {"email", "contact_email", "recipient_email"},
	"company_name":    {"company_name", "contact_firm_name", "firm_name"},
	"company_website": {"company_website", "cs_company_website", "firm_url"},
}

// BaseColumns are always present in the output, in this order, ahead of the
// dynamic enrichment columns.
var BaseColumns = []string{
	"name",
	"email",
	"company_name",
	"company_website",
	"enrichment_status",
	"enrichment_error",
	"api_calls_made",
}

// ReadLeads parses a leads CSV, resolving header aliases. Rows with no email
// and no company name are skipped (there is nothing to search on).
func ReadLeads(r io.Reader) ([]Lead, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("enrich: read CSV header: %w", err)
	}

	index := map[string]int{}
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	resolve := func(field string) int {
		for _, alias := range columnAliases[field] {
			if i, ok := index[alias]; ok {
				return i
			}
		}
		return -1
	}
	nameIdx := resolve("name")
	emailIdx := resolve("email")
	companyIdx := resolve("company_name")
	websiteIdx := resolve("company_website")
	if emailIdx < 0 && companyIdx < 0 {
		return nil, fmt.Errorf("enrich: CSV header has no recognizable email or company column: %v", header)
	}

	var leads []Lead
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("enrich: read CSV record: %w", err)
		}
		lead := Lead{
			Name:           field(record, nameIdx),
			Email:          strings.ToLower(field(record, emailIdx)),
			CompanyName:    field(record, companyIdx),
			CompanyWebsite: field(record, websiteIdx),
		}
		if lead.Email == "" && lead.CompanyName == "" {
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Columns returns the stable output header: BaseColumns first, then every
// other column seen in rows, sorted.
func Columns(rows []Row) []string {
	base := map[string]bool{}
	for _, col := range BaseColumns {
		base[col] = true
	}
	seen := map[string]bool{}
	for _, row := range rows {
		for col := range row {
			if !base[col] {
				seen[col] = true
			}
		}
	}
	extra := make([]string, 0, len(seen))
	for col := range seen {
		extra = append(extra, col)
	}
	sort.Strings(extra)
	return append(append([]string{}, BaseColumns...), extra...)
}

// WriteRows writes the enriched rows as CSV with the given column order.
// Missing values render as empty cells.
func WriteRows(w io.Writer, columns []string, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("enrich: write CSV header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("enrich: write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
