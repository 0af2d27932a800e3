package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty(" x "))
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("a3bb189e-8bf9-3888-9912-ace4e6543002"))
	assert.True(t, IsValidUUID("A3BB189E-8BF9-3888-9912-ACE4E6543002"))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("a3bb189e8bf938889912ace4e6543002"))
}

func TestIsValidDate(t *testing.T) {
	_, ok := IsValidDate("2026-08-31")
	assert.True(t, ok)

	_, ok = IsValidDate("31-08-2026")
	assert.False(t, ok)

	_, ok = IsValidDate("2026-13-01")
	assert.False(t, ok)
}

func TestIsValidDateTime(t *testing.T) {
	parsed, ok := IsValidDateTime("2026-08-31T10:30:00Z")
	assert.True(t, ok)
	assert.Equal(t, 2026, parsed.Year())

	_, ok = IsValidDateTime("2026-08-31T10:30:00+07:00")
	assert.True(t, ok)

	_, ok = IsValidDateTime("2026-08-31 10:30:00")
	assert.False(t, ok)

	_, ok = IsValidDateTime("2026-08-31")
	assert.False(t, ok)
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "latitude", Message: "latitude must be between -90 and 90"},
		{Field: "site_id", Message: "site_id is required"},
	}

	assert.Contains(t, errs.Error(), "latitude")
	assert.Contains(t, errs.Error(), "site_id is required")

	m := errs.ToMap()
	assert.Len(t, m, 2)
	assert.Equal(t, "site_id is required", m["site_id"])
}
