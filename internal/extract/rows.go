package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// AffiliateRow is one beneficiary row recovered from the affiliate table.
type AffiliateRow struct {
	Seq   int    // 1-based sequence number as printed in the table
	CUSSP string // 6 digits + 5 uppercase letters + 1 digit
	Name  string
}

// The extracted table has no reliable column delimiters, so the fixed-width
// CUSSP acts as the row anchor. The name capture is lazy and stops before the
// next single-letter column (the S/N flag); names containing a lone initial
// followed by a space would be truncated there, a known fragility of the
// document family.
var affiliateRowPattern = regexp.MustCompile(
	`^\s*(\d+)\s+(\d{6}[A-Z]{5}\d)\s+([A-ZÁÉÍÓÚÑ\s,\.]+?)\s+[A-Z]\s`)

// ExtractRows scans text line by line and returns every affiliate row found,
// in source order. Lines that do not look like table rows contribute nothing;
// the result may be empty but extraction itself never fails.
func ExtractRows(text string) []AffiliateRow {
	var rows []AffiliateRow
	for _, line := range strings.Split(text, "\n") {
		m := affiliateRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		seq, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		rows = append(rows, AffiliateRow{
			Seq:   seq,
			CUSSP: m[2],
			Name:  strings.TrimSpace(m[3]),
		})
	}
	return rows
}
