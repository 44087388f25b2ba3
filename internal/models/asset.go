package models

import (
	"strings"
	"time"
)

// Column positions of the asset sheet. Column 0 holds the derived identifier.
const (
	ColAssetID = iota
	ColPrimaryElement
	ColDescriptionAlloy
	ColUpperSizeUm
	ColManufacturer
	ColDateReceived
	ColNumberOfProcesses
	ColNumberOfUses
	ColConditionIdentifier
	ColPrintDateRecycling
	ColLastUpdated
	ColUpdatedBy

	// RowWidth is the number of columns every stored row is read and written as.
	RowWidth
)

// FieldCount is the number of descriptive fields an identifier is derived from.
const FieldCount = 9

// TimestampLayout is the LastUpdated column format, always rendered in UTC.
const TimestampLayout = "2006-01-02 15:04:05 UTC"

// Header is the expected header row of the sheet.
var Header = []string{
	"AssetID",
	"PrimaryElement",
	"DescriptionAlloy",
	"UpperSizeUm",
	"Manufacturer",
	"DateReceived",
	"NumberOfProcesses",
	"NumberOfUses",
	"ConditionIdentifier",
	"PrintDateRecycling",
	"LastUpdated",
	"UpdatedBy",
}

// Fields holds the nine descriptive attributes of an asset, all free text.
type Fields struct {
	PrimaryElement      string `json:"primary_element"`
	DescriptionAlloy    string `json:"description_alloy"`
	UpperSizeUm         string `json:"upper_size_um"`
	Manufacturer        string `json:"manufacturer"`
	DateReceived        string `json:"date_received"`
	NumberOfProcesses   string `json:"number_of_processes"`
	NumberOfUses        string `json:"number_of_uses"`
	ConditionIdentifier string `json:"condition_identifier"`
	PrintDateRecycling  string `json:"print_date_recycling"`
}

// FieldNames lists the form/JSON names of the nine fields in identifier order.
var FieldNames = [FieldCount]string{
	"primary_element",
	"description_alloy",
	"upper_size_um",
	"manufacturer",
	"date_received",
	"number_of_processes",
	"number_of_uses",
	"condition_identifier",
	"print_date_recycling",
}

// Values returns the fields in identifier order.
func (f Fields) Values() [FieldCount]string {
	return [FieldCount]string{
		f.PrimaryElement,
		f.DescriptionAlloy,
		f.UpperSizeUm,
		f.Manufacturer,
		f.DateReceived,
		f.NumberOfProcesses,
		f.NumberOfUses,
		f.ConditionIdentifier,
		f.PrintDateRecycling,
	}
}

// FieldsFromValues is the inverse of Fields.Values.
func FieldsFromValues(v [FieldCount]string) Fields {
	return Fields{
		PrimaryElement:      v[0],
		DescriptionAlloy:    v[1],
		UpperSizeUm:         v[2],
		Manufacturer:        v[3],
		DateReceived:        v[4],
		NumberOfProcesses:   v[5],
		NumberOfUses:        v[6],
		ConditionIdentifier: v[7],
		PrintDateRecycling:  v[8],
	}
}

// Merge returns f with every field replaced by the matching field of update
// whose trimmed value is non-blank. Blank fields in update keep f's value.
func (f Fields) Merge(update Fields) Fields {
	cur := f.Values()
	upd := update.Values()
	for i := range cur {
		cur[i] = Pick(upd[i], cur[i])
	}
	return FieldsFromValues(cur)
}

// Pick returns next unless it is blank after trimming, in which case it returns prev.
func Pick(next, prev string) string {
	if strings.TrimSpace(next) != "" {
		return next
	}
	return prev
}

// Asset is one inventory record as persisted in the sheet.
type Asset struct {
	AssetID string `json:"asset_id"`
	Fields
	LastUpdated string `json:"last_updated"`
	UpdatedBy   string `json:"updated_by"`
}

// Row renders the asset as a full 12-column row.
func (a Asset) Row() []string {
	row := make([]string, 0, RowWidth)
	row = append(row, a.AssetID)
	for _, v := range a.Fields.Values() {
		row = append(row, v)
	}
	return append(row, a.LastUpdated, a.UpdatedBy)
}

// AssetFromRow parses a stored row, padding short rows with empty cells.
func AssetFromRow(row []string) Asset {
	cells := PadRow(row)
	var v [FieldCount]string
	copy(v[:], cells[ColPrimaryElement:ColLastUpdated])
	return Asset{
		AssetID:     strings.TrimSpace(cells[ColAssetID]),
		Fields:      FieldsFromValues(v),
		LastUpdated: cells[ColLastUpdated],
		UpdatedBy:   cells[ColUpdatedBy],
	}
}

// PadRow returns exactly RowWidth cells: short rows are right-padded with
// empty strings and long rows are truncated.
func PadRow(row []string) []string {
	out := make([]string, RowWidth)
	copy(out, row)
	return out
}

// FormatTimestamp renders t in the LastUpdated column format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a LastUpdated cell.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, strings.TrimSpace(s))
}

// CreateAssetRequest is the body of a new-asset submission.
type CreateAssetRequest struct {
	Fields
	UpdatedBy string `json:"updated_by"`
}

// UpdateAssetRequest is the body of an edit submission. Blank fields mean "unchanged".
type UpdateAssetRequest struct {
	Fields
	UpdatedBy string `json:"updated_by"`
}
