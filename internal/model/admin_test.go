package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAdminStatus(t *testing.T) {
	assert.Equal(t, AdminStatusVerified, ParseAdminStatus(" Verified "))
	assert.Equal(t, AdminStatusPending, ParseAdminStatus("pending"))
	assert.Equal(t, AdminStatusAll, ParseAdminStatus(""))
	assert.Equal(t, AdminStatusAll, ParseAdminStatus("bogus"))
}

func TestAdminRecordMatches(t *testing.T) {
	budi := AdminRecord{DisplayName: "Budi Santoso", Email: "budi@lapor.go.id", IsVerified: true}
	sari := AdminRecord{DisplayName: "Sari", Email: "sari@lapor.go.id"}

	assert.True(t, budi.Matches("", AdminStatusAll))
	assert.True(t, budi.Matches("SANTOSO", AdminStatusAll))
	assert.True(t, budi.Matches("budi@", AdminStatusVerified))
	assert.False(t, budi.Matches("", AdminStatusPending))

	assert.True(t, sari.Matches("lapor", AdminStatusPending))
	assert.False(t, sari.Matches("budi", AdminStatusAll))
	assert.False(t, sari.Matches("", AdminStatusVerified))
}

func TestIdentityPassword(t *testing.T) {
	var id Identity
	assert.False(t, id.ValidatePassword("anything"))
	assert.NoError(t, id.SetPassword("Password#123"))
	assert.True(t, id.ValidatePassword("Password#123"))
	assert.False(t, id.ValidatePassword("password#123"))
	assert.False(t, id.EmailConfirmed())
	assert.Empty(t, id.DisplayName())
}
