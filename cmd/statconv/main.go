// statconv converts a SQL dump of a monster table into the tracker's stat
// block library format.
//
// Usage:
//
//	go run ./cmd/statconv -in monsters.sql [-out data/yaml/statblocks.yaml] [-source "Basic Rules"]
//
// Expected column order:
//
//	id, name, type, hp, ac, str, dex, con, int, wis, cha, player, description
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/initiative-tracker/server/internal/data"
)

const minColumns = 11

type libraryYAML struct {
	StatBlocks []data.StatBlock `yaml:"statblocks"`
}

var abilityColumns = []string{"str", "dex", "con", "int", "wis", "cha"}

// abilityModifier is the 5e modifier for an ability score.
func abilityModifier(score int) int {
	m := score - 10
	if m < 0 {
		m--
	}
	return m / 2
}

// convertRows builds stat blocks from parsed rows. Short or invalid rows are
// skipped and reported.
func convertRows(rows [][]string, source string) ([]data.StatBlock, []string) {
	var blocks []data.StatBlock
	var skipped []string
	seen := make(map[string]bool, len(rows))
	for i, r := range rows {
		if len(r) < minColumns {
			skipped = append(skipped, fmt.Sprintf("row %d: %d columns, need %d", i+1, len(r), minColumns))
			continue
		}
		sb := data.StatBlock{
			ID:     strings.ToLower(strings.TrimSpace(r[0])),
			Name:   r[1],
			Source: source,
			Type:   r[2],
			HP:     parseInt(r[3]),
			AC:     parseInt(r[4]),
		}
		sb.Abilities = make(map[string]int, len(abilityColumns))
		for j, a := range abilityColumns {
			if v := r[5+j]; v != "" {
				sb.Abilities[a] = parseInt(v)
			}
		}
		if dex, ok := sb.Abilities["dex"]; ok {
			sb.InitiativeModifier = abilityModifier(dex)
		}
		if len(r) > 11 && r[11] != "" && r[11] != "0" {
			sb.Player = "player"
		}
		if len(r) > 12 {
			sb.Description = r[12]
		}

		if sb.ID == "" {
			skipped = append(skipped, fmt.Sprintf("row %d: id is required", i+1))
			continue
		}
		if err := sb.Validate(); err != nil {
			skipped = append(skipped, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if seen[sb.ID] {
			skipped = append(skipped, fmt.Sprintf("row %d: duplicate id %q", i+1, sb.ID))
			continue
		}
		seen[sb.ID] = true
		blocks = append(blocks, sb)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })
	return blocks, skipped
}

func writeYAML(path string, v any, comment string) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if comment != "" {
		fmt.Fprintln(f, comment)
		fmt.Fprintln(f)
	}
	_, err = f.Write(out)
	return err
}

func main() {
	in := flag.String("in", "", "SQL dump to convert")
	out := flag.String("out", filepath.Join("data", "yaml", "statblocks.yaml"), "stat block library to write")
	source := flag.String("source", "", "source book recorded on every stat block")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	rows, err := parseAllInserts(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	blocks, skipped := convertRows(rows, *source)
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "  skip %s\n", s)
	}
	fmt.Printf("  statblocks: %d entries (from %d total rows)\n", len(blocks), len(rows))

	if err := writeYAML(*out, libraryYAML{StatBlocks: blocks},
		"# Stat blocks - converted from "+filepath.Base(*in)); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Done!")
}
