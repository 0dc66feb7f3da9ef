// internal/tsdb/client_test.go
package tsdb

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()
	mr := miniredis.RunT(t)

	d, err := NewDialer(Config{Addr: mr.Addr()})
	require.NoError(t, err)

	c, err := d.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestNewDialer_RequiresAddr(t *testing.T) {
	_, err := NewDialer(Config{})
	assert.Error(t, err)
}

func TestSelfTest_LeavesNoKey(t *testing.T) {
	mr, c := openTest(t)

	require.NoError(t, c.SelfTest(context.Background()))
	assert.False(t, mr.Exists(selfTestKey))
}

func TestSetHash(t *testing.T) {
	mr, c := openTest(t)

	require.NoError(t, c.SetHash(context.Background(), "home:lookup", map[string]string{
		"grid_voltage": `{"unit":"V","gain":10}`,
		"soc":          `{"unit":"%","gain":10}`,
	}))

	assert.Equal(t, `{"unit":"V","gain":10}`, mr.HGet("home:lookup", "grid_voltage"))
	assert.Equal(t, `{"unit":"%","gain":10}`, mr.HGet("home:lookup", "soc"))
}

func TestSetHash_EmptyIsNoop(t *testing.T) {
	mr, c := openTest(t)

	require.NoError(t, c.SetHash(context.Background(), "home:lookup", nil))
	assert.False(t, mr.Exists("home:lookup"))
}

func TestReplaceHash_DropsStaleFields(t *testing.T) {
	mr, c := openTest(t)
	ctx := context.Background()

	require.NoError(t, c.SetHash(ctx, "home:lookup", map[string]string{
		"pv_0_voltage": `{"unit":"V","gain":10}`,
		"pv_1_voltage": `{"unit":"V","gain":10}`,
	}))
	require.NoError(t, c.ReplaceHash(ctx, "home:lookup", map[string]string{
		"pv_0_voltage": `{"unit":"V","gain":10}`,
	}))

	keys, err := mr.HKeys("home:lookup")
	require.NoError(t, err)
	assert.Equal(t, []string{"pv_0_voltage"}, keys)
}

func TestReplaceHash_EmptyDeletes(t *testing.T) {
	mr, c := openTest(t)
	ctx := context.Background()

	require.NoError(t, c.SetHash(ctx, "home:lookup", map[string]string{"soc": "{}"}))
	require.NoError(t, c.ReplaceHash(ctx, "home:lookup", nil))
	assert.False(t, mr.Exists("home:lookup"))
}

func TestOpen_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	d, err := NewDialer(Config{Addr: addr})
	require.NoError(t, err)

	_, err = d.Open(context.Background())
	assert.Error(t, err)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"base", "data", "type"}, sortedKeys(map[string]string{
		"type": "solar", "base": "home", "data": "pv",
	}))
}
