package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/teahouse-backend/internal/domain/discount"
)

func writeGz(t *testing.T, dir, name string, codes ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(codes, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return path
}

func testScan(minFiles int) scanConfig {
	return scanConfig{MinFiles: minFiles, MinLen: 8, MaxLen: 10, Capacity: 1000, FPR: 0.0001}
}

func TestFindCodes(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeGz(t, dir, "a.gz", "HAPPYHRS", "ONLYINAA", "SHORT", "FIFTYOFF"),
		writeGz(t, dir, "b.gz", "HAPPYHRS", "ONLYINBB", "FIFTYOFF", "WAYTOOLONGCODE"),
		writeGz(t, dir, "c.gz", "FIFTYOFF", "SHORT", "WAYTOOLONGCODE"),
	}
	ctx := context.Background()

	tests := []struct {
		name     string
		minFiles int
		want     []string
	}{
		{name: "two lists", minFiles: 2, want: []string{"FIFTYOFF", "HAPPYHRS"}},
		{name: "every list", minFiles: 3, want: []string{"FIFTYOFF"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testScan(tt.minFiles).FindCodes(ctx, files)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindCodes_Errors(t *testing.T) {
	dir := t.TempDir()
	one := writeGz(t, dir, "a.gz", "HAPPYHRS")
	ctx := context.Background()

	_, err := testScan(1).FindCodes(ctx, []string{one, one})
	require.Error(t, err)

	_, err = testScan(2).FindCodes(ctx, []string{one})
	require.Error(t, err)

	_, err = testScan(2).FindCodes(ctx, []string{one, filepath.Join(dir, "missing.gz")})
	require.Error(t, err)
}

func TestRuleFor(t *testing.T) {
	in := ruleFor("TEATIME5").input("TEATIME5")
	assert.Equal(t, discount.TypeFixed, in.Type)
	assert.Equal(t, "TEATIME5", in.Code)
	assert.True(t, in.MinOrderAmount.IsPositive())

	in = ruleFor("UNKNOWN1").input("UNKNOWN1")
	assert.Equal(t, discount.TypePercentage, in.Type)
	assert.Equal(t, "10", in.Value.String())
	assert.Nil(t, in.MaxUses)
}
