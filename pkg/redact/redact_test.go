package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactReplacesConfiguredPositions(t *testing.T) {
	row := Row{1, "Alice Smith", "a@x.com"}

	out, err := Redact(row, []int{1})
	require.NoError(t, err)

	assert.Equal(t, Row{1, Sentinel, "a@x.com"}, out)
	assert.Len(t, out, len(row))
}

func TestRedactStreetAddress(t *testing.T) {
	row := Row{7, 42, "123 Main St"}

	out, err := Redact(row, []int{2})
	require.NoError(t, err)

	assert.Equal(t, Row{7, 42, Sentinel}, out)
}

func TestRedactNoPositionsCopiesVerbatim(t *testing.T) {
	row := Row{9, "2024-01-01", 125.40}

	out, err := Redact(row, nil)
	require.NoError(t, err)

	assert.Equal(t, row, out)
}

func TestRedactMultiplePositions(t *testing.T) {
	row := Row{"a", "b", "c", "d"}

	out, err := Redact(row, []int{0, 2})
	require.NoError(t, err)

	assert.Equal(t, Row{Sentinel, "b", Sentinel, "d"}, out)
}

func TestRedactDoesNotMutateInput(t *testing.T) {
	row := Row{1, "Alice Smith", "a@x.com"}

	_, err := Redact(row, []int{1})
	require.NoError(t, err)

	assert.Equal(t, Row{1, "Alice Smith", "a@x.com"}, row)
}

func TestRedactIsIdempotent(t *testing.T) {
	row := Row{1, "Alice Smith", "a@x.com"}

	once, err := Redact(row, []int{1})
	require.NoError(t, err)

	twice, err := Redact(once, []int{1})
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestRedactPreservesNilValues(t *testing.T) {
	row := Row{1, nil, "a@x.com"}

	out, err := Redact(row, []int{2})
	require.NoError(t, err)

	assert.Equal(t, Row{1, nil, Sentinel}, out)
}

func TestRedactPositionOutOfRange(t *testing.T) {
	row := Row{1, "Alice Smith"}

	_, err := Redact(row, []int{2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestRedactNegativePosition(t *testing.T) {
	row := Row{1, "Alice Smith"}

	_, err := Redact(row, []int{-1})
	require.Error(t, err)
}

func TestRedactEmptyRowWithPositions(t *testing.T) {
	_, err := Redact(Row{}, []int{0})
	require.Error(t, err)
}
