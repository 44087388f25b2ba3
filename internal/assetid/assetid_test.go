package assetid

import (
	"strings"
	"testing"

	"powder-inventory/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFields() models.Fields {
	return models.Fields{
		PrimaryElement:      "Al",
		DescriptionAlloy:    "6061",
		UpperSizeUm:         "100",
		Manufacturer:        "Acme Corp",
		DateReceived:        "2023-05-01",
		NumberOfProcesses:   "2",
		NumberOfUses:        "5",
		ConditionIdentifier: "Good",
		PrintDateRecycling:  "2023-06-01",
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Cu", want: "Cu"},
		{name: "trims", in: "  Cu \t", want: "Cu"},
		{name: "collapses runs", in: "Acme   \t Corp", want: "Acme Corp"},
		{name: "underscore to hyphen", in: "lot_7_b", want: "lot-7-b"},
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \n\t ", want: ""},
		{name: "newline inside", in: "a\nb", want: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestDerive(t *testing.T) {
	got := Derive(sampleFields())
	assert.Equal(t, "Al_6061_100_Acme Corp_2023-05-01_2_5_Good_2023-06-01", got)
}

func TestDerive_Deterministic(t *testing.T) {
	f := sampleFields()
	assert.Equal(t, Derive(f), Derive(f))
}

func TestDerive_NormalizationIdempotent(t *testing.T) {
	f := sampleFields()
	f.Manufacturer = "  Acme\t\tCorp_West "
	f.PrimaryElement = " Al"

	assert.Equal(t, Derive(f), Derive(NormalizeFields(f)))
}

func TestDerive_WhitespaceInsensitive(t *testing.T) {
	a := sampleFields()
	a.PrimaryElement = "  a  b "
	b := sampleFields()
	b.PrimaryElement = "a b"

	assert.Equal(t, Derive(a), Derive(b))
}

func TestDerive_UnderscoresNeverAddFields(t *testing.T) {
	f := sampleFields()
	f.DescriptionAlloy = "Ti_6Al_4V"
	f.ConditionIdentifier = "_"

	id := Derive(f)
	parts, ok := Split(id)
	require.True(t, ok, "id %q should split into nine parts", id)
	assert.Equal(t, "Ti-6Al-4V", parts[1])
	assert.Equal(t, "-", parts[7])
}

func TestDerive_EmptyFields(t *testing.T) {
	id := Derive(models.Fields{})
	assert.Equal(t, strings.Repeat(Separator, models.FieldCount-1), id)

	parts, ok := Split(id)
	require.True(t, ok)
	for _, p := range parts {
		assert.Empty(t, p)
	}
}

func TestSplit_WrongPartCount(t *testing.T) {
	_, ok := Split("a_b_c")
	assert.False(t, ok)
}
