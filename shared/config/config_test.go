// shared/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTeams(t *testing.T) {
	teams, err := ParseTeams("RED:Red Lions:#e74c3c, BLUE:Blue Herons:#3498db")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, TeamConfig{Code: "RED", Name: "Red Lions", Color: "#e74c3c"}, teams[0])
	assert.Equal(t, "BLUE", teams[1].Code)
}

func TestParseTeamsDefaults(t *testing.T) {
	teams, err := ParseTeams("RED,BLUE:Blue Herons")
	require.NoError(t, err)
	require.Len(t, teams, 2)

	// Omitted fields fall back to the code and a neutral color.
	assert.Equal(t, "RED", teams[0].Name)
	assert.Equal(t, "#888888", teams[0].Color)
	assert.Equal(t, "Blue Herons", teams[1].Name)
	assert.Equal(t, "#888888", teams[1].Color)
}

func TestParseTeamsRejectsDuplicatesAndEmpty(t *testing.T) {
	_, err := ParseTeams("RED,RED")
	assert.Error(t, err)

	_, err = ParseTeams("")
	assert.Error(t, err)

	_, err = ParseTeams(":no code")
	assert.Error(t, err)
}
