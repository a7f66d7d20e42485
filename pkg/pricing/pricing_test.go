package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

func intPtr(v int) *int { return &v }

func bracket(min int, max *int, price int64) Bracket {
	return Bracket{MinQuantity: min, MaxQuantity: max, UnitPrice: decimal.NewFromInt(price)}
}

func threeTiers() []Bracket {
	return []Bracket{
		bracket(1, intPtr(5), 100),
		bracket(6, intPtr(15), 95),
		bracket(16, nil, 90),
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		brackets []Bracket
		quantity int
		want     int64
	}{
		{name: "middle tier", brackets: threeTiers(), quantity: 12, want: 95},
		{name: "open-ended tier", brackets: threeTiers(), quantity: 20, want: 90},
		{name: "first tier", brackets: threeTiers(), quantity: 1, want: 100},
		{name: "upper bound inclusive", brackets: threeTiers(), quantity: 5, want: 100},
		{name: "lower bound inclusive", brackets: threeTiers(), quantity: 16, want: 90},
		{name: "below every tier falls back to first", brackets: threeTiers(), quantity: 0, want: 100},
		{
			name:     "gap falls back to first",
			brackets: []Bracket{bracket(1, intPtr(5), 100), bracket(10, nil, 80)},
			quantity: 7,
			want:     100,
		},
		{
			name:     "overlap picks earliest in list order",
			brackets: []Bracket{bracket(1, intPtr(10), 100), bracket(5, nil, 80)},
			quantity: 7,
			want:     100,
		},
		{name: "empty resolves to zero", brackets: nil, quantity: 3, want: 0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(tc.brackets, tc.quantity)
			assert.True(t, got.Equal(decimal.NewFromInt(tc.want)), "got %s want %d", got, tc.want)
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	b, ok := Match(threeTiers(), 12)
	require.True(t, ok)
	assert.Equal(t, 6, b.MinQuantity)

	_, ok = Match(threeTiers(), 0)
	assert.False(t, ok)
}

func TestMinPrice(t *testing.T) {
	t.Parallel()

	assert.True(t, MinPrice(threeTiers()).Equal(decimal.NewFromInt(90)))
	assert.True(t, MinPrice(nil).IsZero())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate(threeTiers()))
	require.NoError(t, Validate([]Bracket{bracket(1, intPtr(5), 100), bracket(10, intPtr(20), 90)}))

	invalid := map[string][]Bracket{
		"empty":              nil,
		"zero min":           {bracket(0, nil, 10)},
		"max below min":      {bracket(5, intPtr(4), 10)},
		"negative price":     {bracket(1, nil, -1)},
		"unsorted":           {bracket(6, intPtr(10), 10), bracket(1, intPtr(5), 12)},
		"overlapping":        {bracket(1, intPtr(10), 10), bracket(5, nil, 9)},
		"open-ended not last": {bracket(1, nil, 10), bracket(20, intPtr(30), 9)},
	}
	for name, brackets := range invalid {
		err := Validate(brackets)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}
