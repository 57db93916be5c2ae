package order

import (
	"context"
	"sort"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-valuation/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[int64]product.Product
	getErr error
	calls  [][]int64
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	m.calls = append(m.calls, ids)
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[int64]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{byID: byID}
}

// scenarioCatalog is the catalog used by the worked examples: one regular
// product worth 100 and one on-sale product worth 50.
func scenarioCatalog() *mockProductRepo {
	return newProductRepo(
		product.Product{ID: 1, Name: "Espresso Machine", Value: d("100.0")},
		product.Product{ID: 2, Name: "Milk Frother", Value: d("50.0"), IsSale: true},
	)
}

func ids(products []product.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

// --- CalculateOrderValue ---

func TestCalculateOrderValue(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItem
		want  decimal.Decimal
	}{
		{
			name: "regular, sale and missing product",
			items: []OrderItem{
				{ProductID: 1, Quantity: 2},
				{ProductID: 2, Quantity: 1},
				{ProductID: 99, Quantity: 5},
			},
			want: d("240.0"),
		},
		{
			name:  "empty order",
			items: []OrderItem{},
			want:  decimal.Zero,
		},
		{
			name:  "nil order",
			items: nil,
			want:  decimal.Zero,
		},
		{
			name:  "only missing products",
			items: []OrderItem{{ProductID: 98, Quantity: 1}, {ProductID: 99, Quantity: 3}},
			want:  decimal.Zero,
		},
		{
			name: "same product on several lines",
			items: []OrderItem{
				{ProductID: 2, Quantity: 1},
				{ProductID: 2, Quantity: 2},
			},
			want: d("120"),
		},
		{
			name:  "zero quantity contributes nothing",
			items: []OrderItem{{ProductID: 1, Quantity: 0}},
			want:  decimal.Zero,
		},
		{
			name:  "negative quantity is not validated",
			items: []OrderItem{{ProductID: 1, Quantity: -1}},
			want:  d("-100"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(scenarioCatalog())

			got, err := svc.CalculateOrderValue(context.Background(), tt.items)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestCalculateOrderValue_SingleCatalogCall(t *testing.T) {
	repo := scenarioCatalog()
	svc := NewService(repo)

	_, err := svc.CalculateOrderValue(context.Background(), []OrderItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, repo.calls, 1)
	assert.Equal(t, []int64{1, 2}, repo.calls[0])
}

func TestCalculateOrderValue_EmptySkipsCatalog(t *testing.T) {
	repo := scenarioCatalog()
	svc := NewService(repo)

	_, err := svc.CalculateOrderValue(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, repo.calls)
}

func TestCalculateOrderValue_CatalogError(t *testing.T) {
	repo := &mockProductRepo{getErr: errors.New("db down")}
	svc := NewService(repo)

	_, err := svc.CalculateOrderValue(context.Background(), []OrderItem{{ProductID: 1, Quantity: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get products")
	assert.Contains(t, err.Error(), "db down")
}

// --- FindProductsByID ---

func TestFindProductsByID(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
		want []int64
	}{
		{name: "all present", ids: []int64{1, 2}, want: []int64{1, 2}},
		{name: "first appearance order", ids: []int64{2, 1}, want: []int64{2, 1}},
		{name: "duplicates collapse", ids: []int64{1, 1, 2, 1, 2}, want: []int64{1, 2}},
		{name: "missing dropped", ids: []int64{99, 1, 98}, want: []int64{1}},
		{name: "only missing", ids: []int64{99}, want: []int64{}},
		{name: "empty input", ids: nil, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(scenarioCatalog())

			got, err := svc.FindProductsByID(context.Background(), tt.ids)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFindProductsByID_NeverExceedsUniqueResolvableIDs(t *testing.T) {
	svc := NewService(scenarioCatalog())
	input := []int64{1, 2, 2, 3, 1, 99, 2}

	got, err := svc.FindProductsByID(context.Background(), input)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 2)
}

func TestFindProductsByID_CatalogError(t *testing.T) {
	svc := NewService(&mockProductRepo{getErr: errors.New("timeout")})

	_, err := svc.FindProductsByID(context.Background(), []int64{1})
	require.Error(t, err)
}

// --- CalculateMultipleOrders ---

func TestCalculateMultipleOrders(t *testing.T) {
	svc := NewService(scenarioCatalog())
	ctx := context.Background()

	orders := [][]OrderItem{
		{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}, {ProductID: 99, Quantity: 5}},
		{{ProductID: 2, Quantity: 4}},
		{},
		{{ProductID: 1, Quantity: 1}},
	}

	got, err := svc.CalculateMultipleOrders(ctx, orders)
	require.NoError(t, err)
	assert.True(t, d("500").Equal(got), "got %s", got)

	// Equals the sum of single-order valuations.
	sum := decimal.Zero
	for _, o := range orders {
		v, err := svc.CalculateOrderValue(ctx, o)
		require.NoError(t, err)
		sum = sum.Add(v)
	}
	assert.True(t, sum.Equal(got))
}

func TestCalculateMultipleOrders_Empty(t *testing.T) {
	svc := NewService(scenarioCatalog())

	got, err := svc.CalculateMultipleOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(got))
}

func TestCalculateMultipleOrders_CatalogError(t *testing.T) {
	svc := NewService(&mockProductRepo{getErr: errors.New("db down")})

	_, err := svc.CalculateMultipleOrders(context.Background(), [][]OrderItem{
		{{ProductID: 1, Quantity: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order 0")
}

// --- GroupProductsBySale ---

func TestGroupProductsBySale(t *testing.T) {
	svc := NewService(scenarioCatalog())

	got, err := svc.GroupProductsBySale(context.Background(), []int64{1, 2})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, []int64{1}, ids(got[false]))
	assert.Equal(t, []int64{2}, ids(got[true]))
}

func TestGroupProductsBySale_AbsentKeys(t *testing.T) {
	svc := NewService(scenarioCatalog())
	ctx := context.Background()

	t.Run("only missing ids", func(t *testing.T) {
		got, err := svc.GroupProductsBySale(ctx, []int64{99})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("only regular products", func(t *testing.T) {
		got, err := svc.GroupProductsBySale(ctx, []int64{1, 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		_, hasSale := got[true]
		assert.False(t, hasSale)
		assert.Equal(t, []int64{1}, ids(got[false]))
	})

	t.Run("only sale products", func(t *testing.T) {
		got, err := svc.GroupProductsBySale(ctx, []int64{2, 99})
		require.NoError(t, err)
		require.Len(t, got, 1)
		_, hasRegular := got[false]
		assert.False(t, hasRegular)
	})
}

func TestGroupProductsBySale_PartitionMatchesLookup(t *testing.T) {
	repo := newProductRepo(
		product.Product{ID: 1, Value: d("1")},
		product.Product{ID: 2, Value: d("2"), IsSale: true},
		product.Product{ID: 3, Value: d("3")},
		product.Product{ID: 4, Value: d("4"), IsSale: true},
	)
	svc := NewService(repo)
	ctx := context.Background()
	input := []int64{4, 3, 3, 2, 1, 42, 1}

	found, err := svc.FindProductsByID(ctx, input)
	require.NoError(t, err)

	groups, err := svc.GroupProductsBySale(ctx, input)
	require.NoError(t, err)

	var union []int64
	for flag, members := range groups {
		for _, p := range members {
			assert.Equal(t, flag, p.IsSale)
			union = append(union, p.ID)
		}
	}

	want := ids(found)
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	sort.Slice(union, func(i, j int) bool { return union[i] < union[j] })
	assert.Equal(t, want, union)
}
