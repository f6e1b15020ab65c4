package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"estate_intel/models"
)

// aliasIndex maps a normalized label to its field key. Longer aliases are
// tried first when a label only starts with one.
type aliasIndex struct {
	exact   map[string]string
	ordered []string
}

func newAliasIndex(aliases map[string][]string) *aliasIndex {
	idx := &aliasIndex{exact: make(map[string]string)}
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, alias := range aliases[key] {
			label := normalizeLabel(alias)
			if label == "" {
				continue
			}
			if _, taken := idx.exact[label]; taken {
				continue
			}
			idx.exact[label] = key
			idx.ordered = append(idx.ordered, label)
		}
	}
	sort.SliceStable(idx.ordered, func(i, j int) bool { return len(idx.ordered[i]) > len(idx.ordered[j]) })
	return idx
}

// lookup matches "Price", "price:" and "Price (USD)" but not "Price per sqft"
// unless that is itself an alias.
func (idx *aliasIndex) lookup(cell string) (string, bool) {
	label := normalizeLabel(cell)
	if label == "" {
		return "", false
	}
	if key, ok := idx.exact[label]; ok {
		return key, true
	}
	for _, alias := range idx.ordered {
		if strings.HasPrefix(label, alias+" (") {
			return idx.exact[alias], true
		}
	}
	return "", false
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':' || r == '*' || r == '.' || r == '-'
	})
	return strings.Join(strings.Fields(s), " ")
}

// FillTemplate writes values into a user workbook next to every label cell
// that matches one of models.FieldAliases. Only empty cells to the right of a
// label are written. It returns the filled workbook and the number of cells
// written.
func FillTemplate(template []byte, values map[string]any) ([]byte, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(template))
	if err != nil {
		return nil, 0, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	idx := newAliasIndex(models.FieldAliases)
	filled := 0
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", sheet, err)
		}
		for r, row := range rows {
			for c, text := range row {
				key, ok := idx.lookup(text)
				if !ok {
					continue
				}
				v, ok := values[key]
				if !ok {
					continue
				}
				if c+1 < len(row) && strings.TrimSpace(row[c+1]) != "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+2, r+1)
				if err != nil {
					return nil, 0, err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, 0, fmt.Errorf("write %s!%s: %w", sheet, cell, err)
				}
				filled++
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), filled, nil
}
