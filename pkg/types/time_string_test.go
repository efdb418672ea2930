package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	ts, err := NewTimeStringFromString("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeString("09:30"), ts)

	_, err = NewTimeStringFromString("9:30")
	assert.ErrorIs(t, err, ErrInvalidTimeString)

	_, err = NewTimeStringFromString("25:00")
	assert.ErrorIs(t, err, ErrInvalidTimeString)

	_, err = NewTimeStringFromString("")
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_Minutes(t *testing.T) {
	assert.Equal(t, 0, TimeString("00:00").Minutes())
	assert.Equal(t, 570, TimeString("09:30").Minutes())
	assert.Equal(t, 1439, TimeString("23:59").Minutes())
}

func TestTimeString_Comparisons(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("17:00"))
	assert.False(t, TimeString("17:00").IsBefore("09:00"))
	assert.False(t, TimeString("09:00").IsBefore("09:00"))

	assert.True(t, TimeString("17:00").IsAfter("09:00"))
	assert.False(t, TimeString("09:00").IsAfter("09:00"))
}

func TestTimeString_AddMinutes(t *testing.T) {
	ts, err := TimeString("09:30").AddMinutes(45)
	require.NoError(t, err)
	assert.Equal(t, TimeString("10:15"), ts)

	_, err = TimeString("23:30").AddMinutes(60)
	assert.ErrorIs(t, err, ErrTimeOutOfDay)

	_, err = TimeString("bad").AddMinutes(10)
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_OnDate(t *testing.T) {
	date := time.Date(2026, 9, 14, 15, 22, 7, 0, time.UTC)
	at := TimeString("09:30").OnDate(date)
	assert.Equal(t, time.Date(2026, 9, 14, 9, 30, 0, 0, time.UTC), at)
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.Scan("09:30:00"))
	assert.Equal(t, TimeString("09:30"), ts)

	require.NoError(t, ts.Scan([]byte("17:45")))
	assert.Equal(t, TimeString("17:45"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}

func TestTimeString_Value(t *testing.T) {
	v, err := TimeString("09:30").Value()
	require.NoError(t, err)
	assert.Equal(t, "09:30", v)

	v, err = TimeString("").Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = TimeString("nope").Value()
	assert.Error(t, err)
}
