package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-valuation/internal/domain/product"
)

const sampleFeed = `# id 1 and 2 are used by the worked examples
{"id":1,"name":"Espresso Machine","value":100.0,"isSale":false}

{"id":2,"name":"Milk Frother","value":"50.0","isSale":true}
`

func collect(t *testing.T, read func(fn func(product.Product) error) error) []product.Product {
	t.Helper()
	var out []product.Product
	require.NoError(t, read(func(p product.Product) error {
		out = append(out, p)
		return nil
	}))
	return out
}

func TestRead(t *testing.T) {
	got := collect(t, func(fn func(product.Product) error) error {
		return Read(context.Background(), strings.NewReader(sampleFeed), fn)
	})

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "100", got[0].Value.String())
	assert.False(t, got[0].IsSale)
	assert.Equal(t, int64(2), got[1].ID)
	assert.True(t, got[1].IsSale)
}

func TestRead_MalformedLine(t *testing.T) {
	input := "{\"id\":1,\"value\":1}\n{\"id\":\"two\"}\n"

	err := Read(context.Background(), strings.NewReader(input), func(product.Product) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestRead_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Read(ctx, strings.NewReader(sampleFeed), func(product.Product) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadFile_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.jsonl.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleFeed))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	got := collect(t, func(fn func(product.Product) error) error {
		return ReadFile(context.Background(), path, fn)
	})
	assert.Len(t, got, 2)
}

func TestReadFile_Missing(t *testing.T) {
	err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"), func(product.Product) error { return nil })
	require.Error(t, err)
}
