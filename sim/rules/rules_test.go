package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krpsim/krpsim/sim"
)

const boxes = `# a small shop
euro:10
buy_wood:(euro:2):(wood:1):3
make_box:(wood:2):(box:1):5   # assembly
optimize:(box)
`

func TestParse_Boxes(t *testing.T) {
	// GIVEN a rule file with stock, two processes and a target
	// WHEN it is parsed
	rs, err := Parse(strings.NewReader(boxes))
	require.NoError(t, err)

	// THEN every construct is loaded in declaration order
	assert.Equal(t, sim.Stock{"euro": 10}, rs.Stock)
	assert.Equal(t, "box", rs.Target)
	assert.Equal(t, []string{"box", "euro", "wood"}, rs.Resources())
	require.Equal(t, 2, rs.Catalog.Len())

	buy := rs.Catalog.Processes()[0]
	assert.Equal(t, &sim.Process{
		Name:    "buy_wood",
		Needs:   map[string]int64{"euro": 2},
		Results: map[string]int64{"wood": 1},
		Delay:   3,
	}, buy)
	assert.Equal(t, "make_box", rs.Catalog.Processes()[1].Name)
}

func TestParse_ProcessForms(t *testing.T) {
	rs, err := Parse(strings.NewReader(`
seed:1
gather::(seed:1):2
burn:(seed:1)::1
mix:(seed:1;seed:2;water:1):(mud:1;):0
optimize:(mud)
`))
	require.NoError(t, err)

	gather, ok := rs.Catalog.Lookup("gather")
	require.True(t, ok)
	assert.Empty(t, gather.Needs)
	assert.Equal(t, map[string]int64{"seed": 1}, gather.Results)

	burn, _ := rs.Catalog.Lookup("burn")
	assert.Empty(t, burn.Results)

	mix, _ := rs.Catalog.Lookup("mix")
	assert.Equal(t, map[string]int64{"seed": 3, "water": 1}, mix.Needs, "repeated names are summed")
	assert.Equal(t, int64(0), mix.Delay)
	assert.True(t, rs.Knows("water"))
}

func TestParse_ZeroStockIsKnownButAbsent(t *testing.T) {
	rs, err := Parse(strings.NewReader("gold:0\nmint:(gold:1):(coin:1):1\noptimize:(coin)\n"))
	require.NoError(t, err)
	assert.True(t, rs.Knows("gold"))
	assert.Equal(t, int64(0), rs.Stock.Get("gold"))
	_, present := rs.Stock["gold"]
	assert.False(t, present)
}

func TestParse_TimeTargetIsDropped(t *testing.T) {
	rs, err := Parse(strings.NewReader("a:1\np:(a:1):(b:1):1\noptimize:(time;b)\n"))
	require.NoError(t, err)
	assert.Equal(t, "b", rs.Target)
}

func TestParse_LastOptimizeWins(t *testing.T) {
	rs, err := Parse(strings.NewReader("a:1\np:(a:1):(b:1):1\noptimize:(a)\noptimize:(b)\n"))
	require.NoError(t, err)
	assert.Equal(t, "b", rs.Target)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		is    error
		line  int
	}{
		{"multiple targets", "a:1\np:(a:1):(b:1):1\noptimize:(a;b)\n", ErrMultipleTargets, 0},
		{"only time", "a:1\np:(a:1):(b:1):1\noptimize:(time)\n", ErrBadTarget, 0},
		{"no optimize", "a:1\np:(a:1):(b:1):1\n", ErrBadTarget, 0},
		{"unknown target", "a:1\np:(a:1):(b:1):1\noptimize:(c)\n", ErrBadTarget, 0},
		{"garbage line", "a:1\nthis is not a rule\noptimize:(a)\n", nil, 2},
		{"missing delay", "a:1\np:(a:1):(b:1)\noptimize:(b)\n", nil, 2},
		{"negative stock", "a:-1\noptimize:(a)\n", nil, 1},
		{"zero quantity", "a:1\np:(a:0):(b:1):1\noptimize:(b)\n", nil, 2},
		{"duplicate process", "a:1\np:(a:1):(b:1):1\np:(a:1):(b:2):1\noptimize:(b)\n", nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
				return
			}
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boxes")
	require.NoError(t, os.WriteFile(path, []byte(boxes), 0644))

	rs, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "box", rs.Target)

	_, err = ParseFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(bad, []byte("euro:10\n"), 0644))
	_, err = ParseFile(bad)
	assert.ErrorIs(t, err, ErrBadTarget)
	assert.Contains(t, err.Error(), bad)
}
