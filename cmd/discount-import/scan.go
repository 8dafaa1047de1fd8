package main

import (
	"bufio"
	"context"
	"log/slog"
	"math/bits"
	"os"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"
)

const progressEvery = 10_000_000

// scanConfig controls the two-pass search for codes shared between lists.
type scanConfig struct {
	MinFiles int
	MinLen   int
	MaxLen   int
	Capacity uint
	FPR      float64
}

// fileResult holds candidate codes found in a single file during pass 2.
type fileResult struct {
	candidates map[string]uint
}

// FindCodes returns the codes present in at least MinFiles of files, sorted.
// Pass 1 builds a bloom filter per file; pass 2 re-streams each file and
// keeps codes that another file's filter may contain.
func (c scanConfig) FindCodes(ctx context.Context, files []string) ([]string, error) {
	switch {
	case c.MinFiles < 2:
		return nil, errors.Errorf("min files must be at least 2, got %d", c.MinFiles)
	case len(files) < c.MinFiles:
		return nil, errors.Errorf("need at least %d code files, found %d", c.MinFiles, len(files))
	case len(files) > bits.UintSize:
		return nil, errors.Errorf("at most %d code files are supported", bits.UintSize)
	}

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := c.buildBloomFilters(ctx, files)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: finding candidate codes")

	codes, err := c.findValidCodes(ctx, files, filters)
	if err != nil {
		return nil, errors.Wrap(err, "find valid codes")
	}
	return codes, nil
}

func (c scanConfig) accept(code string) bool {
	return len(code) >= c.MinLen && len(code) <= c.MaxLen
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func (c scanConfig) buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(c.Capacity, c.FPR)
			var count uint64

			if err := streamGzFile(ctx, f, func(code string) {
				if !c.accept(code) {
					return
				}
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("file", i+1), slog.Uint64("codes", count))
				}
			}); err != nil {
				return errors.Wrapf(err, "build filter for file %d", i+1)
			}

			slog.Info("pass 1 complete", slog.Int("file", i+1), slog.Uint64("total_codes", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// findValidCodes marks every code with the bit of each file it occurs in,
// provided some other file's filter also matches it, and keeps the codes
// with at least MinFiles bits set.
func (c scanConfig) findValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			candidates := make(map[string]uint)
			fileBit := uint(1) << uint(i)

			if err := streamGzFile(ctx, f, func(code string) {
				if !c.accept(code) {
					return
				}
				for j, other := range filters {
					if j != i && other.TestString(code) {
						candidates[code] |= fileBit
						return
					}
				}
			}); err != nil {
				return errors.Wrapf(err, "scan file %d for candidates", i+1)
			}

			slog.Info("pass 2 complete", slog.Int("file", i+1), slog.Int("candidates", len(candidates)))
			results[i] = fileResult{candidates: candidates}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r.candidates {
			merged[code] |= mask
		}
	}

	var valid []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= c.MinFiles {
			valid = append(valid, code)
		}
	}
	sort.Strings(valid)
	return valid, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
