package ltdenv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckSettingsTable(t *testing.T) {
	t.Parallel()

	require.NoError(t, checkSettingsTable(settingsTable))

	t.Run("missing row", func(t *testing.T) {
		t.Parallel()
		table := map[EnvCode]Settings{Dev: settingsTable[Dev], Tst: settingsTable[Tst]}
		require.ErrorContains(t, checkSettingsTable(table), "prd: no settings")
	})

	t.Run("partial row", func(t *testing.T) {
		t.Parallel()
		row := settingsTable[Prd]
		row.Branch = ""
		row.CertificateArn = "not-an-arn"
		table := map[EnvCode]Settings{Dev: settingsTable[Dev], Tst: settingsTable[Tst], Prd: row}

		err := checkSettingsTable(table)
		require.ErrorContains(t, err, "Settings.Branch is required")
		require.ErrorContains(t, err, `Settings.CertificateArn must start with "arn:aws:acm:"`)
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()
		table := map[EnvCode]Settings{}
		for code, row := range settingsTable {
			table[code] = row
		}
		table["stg"] = settingsTable[Tst]
		require.ErrorContains(t, checkSettingsTable(table), "stg: unknown environment code")
	})

	t.Run("rotation interval", func(t *testing.T) {
		t.Parallel()
		row := settingsTable[Dev]
		row.SecretRotation = SecretRotation{Enabled: true, IntervalDays: 400}
		table := map[EnvCode]Settings{Dev: row, Tst: settingsTable[Tst], Prd: settingsTable[Prd]}
		require.ErrorContains(t, checkSettingsTable(table), "IntervalDays is out of range")
	})
}
