package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ConvertStats summarises a CSV conversion
type ConvertStats struct {
	Rows    int
	Written int
	Skipped int
}

// ConvertCSV reads the Kaggle food dataset export (Title, Ingredients,
// Instructions, Image_Name, Cleaned_Ingredients) and returns dataset entries
// with cuisine and tags filled in.
func ConvertCSV(r io.Reader) ([]DatasetRecipe, ConvertStats, error) {
	var stats ConvertStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"title", "instructions"} {
		if _, ok := cols[required]; !ok {
			return nil, stats, fmt.Errorf("missing %q column", required)
		}
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []DatasetRecipe
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		ingredients := parseListLiteral(field(row, "ingredients"))
		if len(ingredients) == 0 {
			ingredients = parseListLiteral(field(row, "cleaned_ingredients"))
		}
		entry := DatasetRecipe{
			ID:           fmt.Sprintf("cat-%d", stats.Rows),
			Title:        field(row, "title"),
			Ingredients:  ingredients,
			Instructions: splitInstructions(field(row, "instructions")),
			ImageName:    field(row, "image_name"),
		}
		if entry.Title == "" || len(entry.Ingredients) == 0 || len(entry.Instructions) == 0 {
			stats.Skipped++
			continue
		}

		rec := entry.toRecipe()
		Tag(&rec)
		entry.Cuisine = rec.Cuisine
		entry.Tags = rec.Tags
		out = append(out, entry)
		stats.Written++
	}
	return out, stats, nil
}

// WriteDataset encodes entries as indented JSON
func WriteDataset(w io.Writer, entries []DatasetRecipe) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// parseListLiteral decodes the Python style list the dataset uses for
// ingredients, e.g. ['1 cup flour', "2 tbsp baker's sugar"].
func parseListLiteral(s string) []string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	s = s[1 : len(s)-1]

	var (
		items []string
		cur   strings.Builder
		quote rune
	)
	for i, r := range s {
		switch {
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
		case quote != 0 && r == quote:
			// A quote only closes an item when followed by a separator or the end
			rest := strings.TrimLeft(s[i+1:], " ")
			if rest == "" || rest[0] == ',' {
				if item := strings.TrimSpace(cur.String()); item != "" {
					items = append(items, item)
				}
				cur.Reset()
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case quote != 0:
			cur.WriteRune(r)
		}
	}
	return items
}

func splitInstructions(s string) []string {
	var steps []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}
