// Cast store — read-only profiles plus the pairwise compatibility
// matrix. Cast files are JSON, checked against a schema before decoding
// and then field-validated, so arithmetic downstream never sees an
// out-of-range value.
package profile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed cast.schema.json
var castSchema string

const compatTolerance = 1e-6

// Store is a read-only cast: profiles by name and their compatibility
// matrix. Built once, shared across all runs.
type Store struct {
	profiles map[string]*Profile
	names    []string // sorted, defines matrix row order
	index    map[string]int
	compat   [][]float64
}

// NewStore validates profiles and the compatibility matrix and builds a
// store. The matrix rows follow the lexicographic order of player names.
func NewStore(profiles []Profile, compat [][]float64) (*Store, error) {
	if len(profiles) == 0 {
		return nil, &DataError{Field: "players", Reason: "empty cast"}
	}

	byName := make(map[string]*Profile, len(profiles))
	names := make([]string, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byName[p.Name]; dup {
			return nil, &DataError{Player: p.Name, Field: "name", Reason: "duplicate"}
		}
		byName[p.Name] = p
		names = append(names, p.Name)
	}
	sort.Strings(names)

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	if err := validateMatrix(compat, len(names)); err != nil {
		return nil, err
	}

	return &Store{profiles: byName, names: names, index: index, compat: compat}, nil
}

func validateMatrix(m [][]float64, n int) error {
	if len(m) != n {
		return &DataError{Field: "compatibility_matrix", Reason: fmt.Sprintf("%d rows for %d players", len(m), n)}
	}
	for i, row := range m {
		if len(row) != n {
			return &DataError{Field: "compatibility_matrix", Reason: fmt.Sprintf("row %d has %d columns, want %d", i, len(row), n)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &DataError{Field: "compatibility_matrix", Reason: fmt.Sprintf("entry (%d,%d) is not finite", i, j)}
			}
			if v < 0 || v > 1 {
				return &DataError{Field: "compatibility_matrix", Reason: fmt.Sprintf("entry (%d,%d) = %v outside [0,1]", i, j, v)}
			}
			if math.Abs(v-m[j][i]) > compatTolerance {
				return &DataError{Field: "compatibility_matrix", Reason: fmt.Sprintf("asymmetric at (%d,%d)", i, j)}
			}
		}
		if math.Abs(row[i]-1.0) > compatTolerance {
			return &DataError{Field: "compatibility_matrix", Reason: fmt.Sprintf("diagonal entry %d is %v, want 1.0", i, row[i])}
		}
	}
	return nil
}

// Names returns all player names in sorted order.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Size returns the cast size.
func (s *Store) Size() int { return len(s.names) }

// Get returns a player's profile, or nil if unknown.
func (s *Store) Get(name string) *Profile { return s.profiles[name] }

// Compatibility returns the pairwise compatibility of two players.
func (s *Store) Compatibility(a, b string) float64 {
	i, oki := s.index[a]
	j, okj := s.index[b]
	if !oki || !okj {
		return 0.5
	}
	return s.compat[i][j]
}

// MeanCompatibility returns a player's average compatibility with a set
// of others, excluding the player themselves. Returns 0.5 for an empty
// set.
func (s *Store) MeanCompatibility(name string, others []string) float64 {
	sum, n := 0.0, 0
	for _, o := range others {
		if o == name {
			continue
		}
		sum += s.Compatibility(name, o)
		n++
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

// castFile is the on-disk cast format.
type castFile struct {
	Players             []Profile   `json:"players"`
	CompatibilityMatrix [][]float64 `json:"compatibility_matrix"`
}

// LoadCast reads a cast JSON file, validates it against the embedded
// schema, and builds a store. Players in the file may appear in any
// order; the matrix must follow the lexicographic name order.
func LoadCast(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCast(raw)
}

// ParseCast builds a store from raw cast JSON.
func ParseCast(raw []byte) (*Store, error) {
	schema, err := jsonschema.CompileString("cast.schema.json", castSchema)
	if err != nil {
		return nil, fmt.Errorf("cast schema: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("cast: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("cast: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var file castFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("cast: %w", err)
	}
	return NewStore(file.Players, file.CompatibilityMatrix)
}
