// Package excel adapts spreadsheet files to and from plain lead records.
// This is part of the platform layer and contains no business logic: phone
// validation and deduplication happen in the leads services.
package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LeadRow is one spreadsheet row reduced to the fields the lead services
// understand. Values are raw cell text; normalization happens downstream.
type LeadRow struct {
	Name    string
	Phone   string
	Email   string
	Company string
	City    string
	State   string
	Notes   string
}

// Column-name variations accepted for each field, checked in order.
var columnSynonyms = map[string][]string{
	"name":    {"name", "full name", "fullname", "full_name", "contact name"},
	"phone":   {"phone", "phone number", "phonenumber", "mobile", "mobile number", "contact", "contact number", "phone_number"},
	"email":   {"email", "email address", "e-mail"},
	"company": {"company", "organisation", "organization", "firm"},
	"city":    {"city", "town"},
	"state":   {"state", "region", "province"},
	"notes":   {"notes", "note", "remarks", "comment", "comments"},
}

// Fuzzy keywords used when no exact synonym matches the required columns.
var fallbackKeywords = map[string][]string{
	"name":  {"name", "full"},
	"phone": {"phone", "mobile", "contact", "number"},
}

// ParseLeadRows reads the first sheet of an xlsx file and extracts lead rows.
// The header row is matched against known column-name variations; name and
// phone columns are required, everything else is best-effort. An explicit
// mapping (field -> header text) overrides detection.
func ParseLeadRows(r io.Reader, mapping map[string]string) ([]LeadRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet is empty")
	}

	header := rows[0]
	columns, err := resolveColumns(header, mapping)
	if err != nil {
		return nil, err
	}

	out := make([]LeadRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		lead := LeadRow{
			Name:    cell(row, columns["name"]),
			Phone:   cell(row, columns["phone"]),
			Email:   cell(row, columns["email"]),
			Company: cell(row, columns["company"]),
			City:    cell(row, columns["city"]),
			State:   cell(row, columns["state"]),
			Notes:   cell(row, columns["notes"]),
		}
		if lead.Name == "" && lead.Phone == "" {
			continue
		}
		out = append(out, lead)
	}

	return out, nil
}

// resolveColumns maps field names to header column indexes. Missing optional
// fields map to -1.
func resolveColumns(header []string, mapping map[string]string) (map[string]int, error) {
	lowered := make([]string, len(header))
	for i, h := range header {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	columns := make(map[string]int, len(columnSynonyms))
	for field := range columnSynonyms {
		columns[field] = -1
	}

	for field, headerText := range mapping {
		for i, h := range lowered {
			if h == strings.ToLower(strings.TrimSpace(headerText)) {
				columns[field] = i
			}
		}
	}

	for field, synonyms := range columnSynonyms {
		if columns[field] >= 0 {
			continue
		}
		for _, syn := range synonyms {
			if idx := indexOf(lowered, syn); idx >= 0 {
				columns[field] = idx
				break
			}
		}
	}

	for _, field := range []string{"name", "phone"} {
		if columns[field] >= 0 {
			continue
		}
		for i, h := range lowered {
			if containsAny(h, fallbackKeywords[field]) {
				columns[field] = i
				break
			}
		}
		if columns[field] < 0 {
			return nil, fmt.Errorf("missing required column: %s", field)
		}
	}

	return columns, nil
}

func indexOf(haystack []string, needle string) int {
	for i, h := range haystack {
		if h == needle {
			return i
		}
	}
	return -1
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ExportRow is one quarantined lead in export column order.
type ExportRow struct {
	Name    string
	Email   string
	Phone   string
	Company string
	City    string
	State   string
}

const exportSheet = "Pulled Leads"

// WritePulledLeads builds the quarantine export workbook and returns its
// serialized bytes.
func WritePulledLeads(rows []ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	header := []interface{}{"Name", "Email", "Phone", "Company", "City", "State"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{row.Name, row.Email, row.Phone, row.Company, row.City, row.State}
		if err := f.SetSheetRow(exportSheet, cellRef, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
