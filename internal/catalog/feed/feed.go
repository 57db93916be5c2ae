// Package feed reads product catalog feeds: newline-delimited JSON files
// holding one product object per line, optionally gzip-compressed.
package feed

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/order-valuation/internal/domain/product"
)

// maxLineSize bounds a single product record.
const maxLineSize = 1 << 20

// ReadFile opens path and calls fn for every product in it. Files ending in
// ".gz" are decompressed transparently.
func ReadFile(ctx context.Context, path string, fn func(product.Product) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	if err := Read(ctx, r, fn); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	return nil
}

// Read decodes products from r, one JSON object per line. Blank lines and
// lines starting with '#' are ignored.
func Read(ctx context.Context, r io.Reader, fn func(product.Product) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}

		raw := scanner.Bytes()
		if isSkippable(raw) {
			continue
		}

		var p product.Product
		if err := p.DecodeJSON(jx.DecodeBytes(raw)); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		if err := fn(p); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scan")
	}
	return nil
}

func isSkippable(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r':
			continue
		case '#':
			return true
		default:
			return false
		}
	}
	return true
}
