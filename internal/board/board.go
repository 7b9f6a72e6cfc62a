package board

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed maps/*.yaml
var embeddedMaps embed.FS

// DefaultMap is the board used when a start request names a map we don't ship.
const DefaultMap = "galilei"

type Cell struct {
	Row int `yaml:"row" json:"row"`
	Col int `yaml:"col" json:"col"`
}

// Board is the static geometry of one map. It is read-only once loaded.
type Board struct {
	Name          string  `yaml:"name"`
	Rows          int     `yaml:"rows"`
	Cols          int     `yaml:"cols"`
	HistoryLength int     `yaml:"history_length"`
	MaxSigils     int     `yaml:"max_sigils"`
	WizardSpawn   Cell    `yaml:"wizard_spawn"`
	WarlockSpawn  Cell    `yaml:"warlock_spawn"`
	SafeByCol     [][]int `yaml:"safe_by_col"`
	WallsByCol    [][]int `yaml:"walls_by_col"`
}

func Parse(data []byte) (*Board, error) {
	var b Board
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode board: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Board) Validate() error {
	if b.Name == "" {
		return errors.New("INVALID_BOARD: Board needs a name")
	}
	if b.Rows <= 0 || b.Cols <= 0 {
		return fmt.Errorf("INVALID_BOARD: %s has no cells", b.Name)
	}
	if b.HistoryLength <= 0 {
		return fmt.Errorf("INVALID_BOARD: %s history_length must be positive", b.Name)
	}
	if b.MaxSigils < 0 {
		return fmt.Errorf("INVALID_BOARD: %s max_sigils cannot be negative", b.Name)
	}
	if len(b.SafeByCol) != b.Cols || len(b.WallsByCol) != b.Cols {
		return fmt.Errorf("INVALID_BOARD: %s needs one safe and one wall list per column", b.Name)
	}
	for _, spawn := range []Cell{b.WizardSpawn, b.WarlockSpawn} {
		if !b.Contains(spawn.Row, spawn.Col) || b.IsWall(spawn.Row, spawn.Col) {
			return fmt.Errorf("INVALID_BOARD: %s spawn (%d,%d) is not a playable cell", b.Name, spawn.Row, spawn.Col)
		}
	}
	return nil
}

// Contains reports whether (row, col) is on the grid. Rows and cols are 0-based.
func (b *Board) Contains(row, col int) bool {
	return row >= 0 && row < b.Rows && col >= 0 && col < b.Cols
}

// IsSafe reports whether moving onto the cell skips the hazard draw.
func (b *Board) IsSafe(row, col int) bool {
	if !b.Contains(row, col) {
		return false
	}
	return slices.Contains(b.SafeByCol[col], row+1)
}

func (b *Board) IsWall(row, col int) bool {
	if !b.Contains(row, col) {
		return false
	}
	return slices.Contains(b.WallsByCol[col], row+1)
}

// Playable is true for on-grid cells that are not walls.
func (b *Board) Playable(row, col int) bool {
	return b.Contains(row, col) && !b.IsWall(row, col)
}

type Registry struct {
	boards   map[string]*Board
	fallback string
}

// LoadEmbedded reads every map shipped with the binary.
func LoadEmbedded(fallback string) (*Registry, error) {
	return Load(embeddedMaps, "maps", fallback)
}

func Load(fsys fs.FS, dir, fallback string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	r := &Registry{
		boards:   make(map[string]*Board),
		fallback: fallback,
	}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read board %s: %w", entry.Name(), err)
		}
		b, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("board %s: %w", entry.Name(), err)
		}
		r.boards[b.Name] = b
	}

	if _, ok := r.boards[fallback]; !ok {
		return nil, fmt.Errorf("BOARD_NOT_FOUND: Default board %q is not defined", fallback)
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (*Board, bool) {
	b, ok := r.boards[name]
	return b, ok
}

// Resolve returns the named board, or the default board when the name is unknown.
func (r *Registry) Resolve(name string) *Board {
	if b, ok := r.boards[name]; ok {
		return b
	}
	return r.boards[r.fallback]
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.boards))
	for name := range r.boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
