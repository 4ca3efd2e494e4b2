package weekends

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
	"year": 2024,
	"months": [
		{"month": 1, "days": "1,2,3,4,5,6,7,8,13,14,20,21,27,28"},
		{"month": 2, "days": "3,4,10,11,17,18,22*,23,24,25"},
		{"month": 4, "days": "6,7,13,14,20,21,27*,28,29+,30"}
	],
	"transitions": [{"from": "04.27", "to": "04.29"}],
	"statistic": {"workdays": 248, "holidays": 118}
}`

func TestParse(t *testing.T) {
	days, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Len(t, days, 14+9+9)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), days[0].Date)

	for _, d := range days {
		assert.False(t, d.Month == 2 && d.Day == 22, "shortened working day must be skipped")
	}

	var transferred []int
	for _, d := range days {
		if d.Transferred {
			transferred = append(transferred, d.Day)
		}
	}
	assert.Equal(t, []int{29}, transferred)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"months": []}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"year": 2024, "months": [{"month": 2, "days": "30"}]}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"year": 2024, "months": [{"month": 1, "days": "x"}]}`))
	assert.Error(t, err)
}

func TestParseWeekendsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	days, err := ParseWeekendsJSON(path)
	require.NoError(t, err)
	assert.NotEmpty(t, days)

	_, err = ParseWeekendsJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestHolidays(t *testing.T) {
	days, err := Parse([]byte(sample))
	require.NoError(t, err)

	holidays := Holidays(days)
	// 1-5 и 8 января, 23 февраля, 29 и 30 апреля
	assert.Len(t, holidays, 9)
	for _, h := range holidays {
		assert.NotEqual(t, time.Saturday, h.Weekday())
		assert.NotEqual(t, time.Sunday, h.Weekday())
	}
}
