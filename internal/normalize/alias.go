package normalize

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliases []byte

// AliasFile is the on-disk layout of the alias table.
type AliasFile struct {
	Distributors [][]string `yaml:"distributors"`
}

// AliasTable maps any member of an alias group to the whole group.
type AliasTable struct {
	groups [][]string
	index  map[string]int
}

// NewAliasTable builds a table from alias groups. Empty members are ignored;
// a term listed in two groups resolves to the first.
func NewAliasTable(groups [][]string) *AliasTable {
	t := &AliasTable{index: make(map[string]int)}
	for _, g := range groups {
		var clean []string
		for _, term := range g {
			if term = strings.TrimSpace(term); term != "" {
				clean = append(clean, term)
			}
		}
		if len(clean) == 0 {
			continue
		}
		idx := len(t.groups)
		t.groups = append(t.groups, clean)
		for _, term := range clean {
			key := strings.ToUpper(term)
			if _, ok := t.index[key]; !ok {
				t.index[key] = idx
			}
		}
	}
	return t
}

// LoadAliases reads an alias table from a YAML file. An empty path loads the
// built-in table.
func LoadAliases(path string) (*AliasTable, error) {
	data := defaultAliases
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "normalize: read alias file %s", path)
		}
		data = b
	}

	var f AliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "normalize: parse alias file")
	}
	return NewAliasTable(f.Distributors), nil
}

// Expand returns every alias of term, or term alone when it belongs to no group.
func (t *AliasTable) Expand(term string) []string {
	term = strings.TrimSpace(term)
	if t == nil || term == "" {
		return []string{term}
	}
	idx, ok := t.index[strings.ToUpper(term)]
	if !ok {
		return []string{term}
	}
	out := make([]string, len(t.groups[idx]))
	copy(out, t.groups[idx])
	return out
}

// Groups returns the number of alias groups.
func (t *AliasTable) Groups() int {
	if t == nil {
		return 0
	}
	return len(t.groups)
}

var multiValueSep = strings.NewReplacer("，", "、", ",", "、", "／", "、", "/", "、")

// SplitMulti splits a multi-valued cell (distributors, genres) on 、 , and /.
// The middle dot is not a separator: it appears inside names.
func SplitMulti(s string) []string {
	s = multiValueSep.Replace(Clean(s))
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, "、") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
