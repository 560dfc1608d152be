package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackPriceCents(t *testing.T) {
	p := Product{ExtraData: []byte(`{"prix_livre": 18.99, "author": "x"}`)}
	got := p.FallbackPriceCents()
	require.NotNil(t, got)
	assert.Equal(t, int64(1899), *got)

	assert.Nil(t, Product{}.FallbackPriceCents())
	assert.Nil(t, Product{ExtraData: []byte(`{"author": "x"}`)}.FallbackPriceCents())
	assert.Nil(t, Product{ExtraData: []byte(`not json`)}.FallbackPriceCents())
}

func TestStockRemainingQuantity(t *testing.T) {
	q := 5
	s := Stock{Quantity: &q}

	got := s.RemainingQuantity(2)
	require.NotNil(t, got)
	assert.Equal(t, 3, *got)

	// Oversold stocks bottom out at zero instead of going negative.
	got = s.RemainingQuantity(9)
	require.NotNil(t, got)
	assert.Equal(t, 0, *got)

	// NULL quantity means unlimited.
	assert.Nil(t, Stock{}.RemainingQuantity(100))
}
