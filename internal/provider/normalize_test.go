package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestNormalizeDerivesReferences(t *testing.T) {
	details, err := Normalize([]RawStock{
		{Ref: "9780000000001", Available: 4, Price: f64(12.5)},
	}, "12345678901234")
	require.NoError(t, err)
	require.Len(t, details, 1)

	d := details[0]
	assert.Equal(t, "9780000000001", d.ProductsProviderReference)
	assert.Equal(t, "9780000000001@12345678901234", d.OffersProviderReference)
	assert.Equal(t, "9780000000001@12345678901234", d.StocksProviderReference)
	assert.Equal(t, 4, d.AvailableQuantity)
	require.NotNil(t, d.PriceCents)
	assert.Equal(t, int64(1250), *d.PriceCents)
}

func TestNormalizeDeduplicatesLastWins(t *testing.T) {
	details, err := Normalize([]RawStock{
		{Ref: "A", Available: 1, Price: f64(10)},
		{Ref: "B", Available: 2},
		{Ref: "A", Available: 7, Price: f64(11)},
	}, "siret")
	require.NoError(t, err)
	require.Len(t, details, 2)

	// Order follows first appearance, content follows the last entry.
	assert.Equal(t, "A", details[0].ProductsProviderReference)
	assert.Equal(t, 7, details[0].AvailableQuantity)
	require.NotNil(t, details[0].PriceCents)
	assert.Equal(t, int64(1100), *details[0].PriceCents)
	assert.Equal(t, "B", details[1].ProductsProviderReference)
	assert.Nil(t, details[1].PriceCents)
}

func TestNormalizeRejectsMissingRef(t *testing.T) {
	_, err := Normalize([]RawStock{{Ref: "ok"}, {Ref: ""}}, "siret")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRef)
}

func TestNormalizeKeepsZeroQuantities(t *testing.T) {
	details, err := Normalize([]RawStock{{Ref: "gone", Available: 0}}, "siret")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, 0, details[0].AvailableQuantity)
}

func TestEurosToCentsRounds(t *testing.T) {
	cases := []struct {
		euros float64
		cents int64
	}{
		{0, 0},
		{9.99, 999},
		{10.5, 1050},
		{1.004, 100},
	}
	for _, tc := range cases {
		got := eurosToCents(&tc.euros)
		require.NotNil(t, got)
		assert.Equal(t, tc.cents, *got, "euros=%v", tc.euros)
	}
	assert.Nil(t, eurosToCents(nil))
}
