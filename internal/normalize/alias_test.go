package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAliases_Default(t *testing.T) {
	table, err := LoadAliases("")
	require.NoError(t, err)
	assert.Equal(t, 3, table.Groups())

	assert.Equal(t, []string{"WB", "ワーナー", "ワーナー・ブラザース映画"}, table.Expand("wb"))
	assert.Contains(t, table.Expand("ディズニー"), "BV")
	assert.Equal(t, []string{"東宝"}, table.Expand("東宝"))
}

func TestLoadAliases_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("distributors:\n  - [TOHO, 東宝]\n"), 0o644))

	table, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Groups())
	assert.Equal(t, []string{"TOHO", "東宝"}, table.Expand("東宝"))
	assert.Equal(t, []string{"WB"}, table.Expand("WB"))
}

func TestLoadAliases_Errors(t *testing.T) {
	_, err := LoadAliases("/nonexistent/aliases.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read alias file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("distributors: [[unterminated"), 0o644))
	_, err = LoadAliases(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse alias file")
}

func TestAliasTable_NilAndEmpty(t *testing.T) {
	var table *AliasTable
	assert.Equal(t, []string{"WB"}, table.Expand("WB"))
	assert.Equal(t, 0, table.Groups())

	table = NewAliasTable([][]string{{" ", ""}, {"A", "B"}})
	assert.Equal(t, 1, table.Groups())
	assert.Equal(t, []string{"A", "B"}, table.Expand("b"))
}

func TestSplitMulti(t *testing.T) {
	assert.Equal(t, []string{"東宝", "東映"}, SplitMulti("東宝、東映"))
	assert.Equal(t, []string{"アニメ", "アクション"}, SplitMulti("アニメ, アクション"))
	assert.Equal(t, []string{"ワーナー・ブラザース映画"}, SplitMulti("ワーナー・ブラザース映画"))
	assert.Nil(t, SplitMulti(""))
}
