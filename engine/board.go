package engine

import (
	"fmt"
	"math"
	"strings"
)

// Board is a rectangular grid of cells stored row-major, 1 for alive and 0 for dead.
type Board struct {
	Rows  int
	Cols  int
	Cells []uint8
}

func NewBoard(rows, cols int) *Board {
	return &Board{Rows: rows, Cols: cols, Cells: make([]uint8, rows*cols)}
}

// BoardFromRows builds a board from a 2D slice. Every row must have the same
// length and the board needs at least one interior cell inside the dead border.
func BoardFromRows(rows [][]bool) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: board is empty", ErrInvalidBoard)
	}
	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidBoard, i, len(row), cols)
		}
	}
	b := NewBoard(len(rows), cols)
	for r, row := range rows {
		for c, alive := range row {
			b.Set(r, c, alive)
		}
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Board) validate() error {
	if b == nil || b.Rows == 0 || b.Cols == 0 {
		return fmt.Errorf("%w: board is empty", ErrInvalidBoard)
	}
	if b.Rows < 0 || b.Cols < 0 || b.Rows > math.MaxInt/b.Cols {
		return fmt.Errorf("%w: %dx%d board dimensions out of range", ErrInvalidBoard, b.Rows, b.Cols)
	}
	if len(b.Cells) != b.Rows*b.Cols {
		return fmt.Errorf("%w: %d cells for a %dx%d board", ErrInvalidBoard, len(b.Cells), b.Rows, b.Cols)
	}
	if b.Rows < 3 || b.Cols < 3 {
		return fmt.Errorf("%w: %dx%d board has no interior cells", ErrInvalidBoard, b.Rows, b.Cols)
	}
	return nil
}

func (b *Board) In(r, c int) bool {
	return r >= 0 && r < b.Rows && c >= 0 && c < b.Cols
}

func (b *Board) Alive(r, c int) bool {
	return b.Cells[r*b.Cols+c] == 1
}

func (b *Board) Set(r, c int, alive bool) {
	if alive {
		b.Cells[r*b.Cols+c] = 1
	} else {
		b.Cells[r*b.Cols+c] = 0
	}
}

// Population returns the number of live cells.
func (b *Board) Population() int {
	n := 0
	for _, v := range b.Cells {
		n += int(v)
	}
	return n
}

func (b *Board) Equal(o *Board) bool {
	if o == nil || b.Rows != o.Rows || b.Cols != o.Cols {
		return false
	}
	for i, v := range b.Cells {
		if o.Cells[i] != v {
			return false
		}
	}
	return true
}

func (b *Board) Clone() *Board {
	n := &Board{Rows: b.Rows, Cols: b.Cols, Cells: make([]uint8, len(b.Cells))}
	copy(n.Cells, b.Cells)
	return n
}

func (b *Board) Rows2D() [][]bool {
	rows := make([][]bool, b.Rows)
	for r := range rows {
		rows[r] = make([]bool, b.Cols)
		for c := range rows[r] {
			rows[r][c] = b.Alive(r, c)
		}
	}
	return rows
}

// Neighbors counts the live cells in the Moore neighbourhood of (r, c).
// Positions outside the board count as dead.
func (b *Board) Neighbors(r, c int) int {
	n := 0
	for i := r - 1; i <= r+1; i++ {
		for j := c - 1; j <= c+1; j++ {
			if (i != r || j != c) && b.In(i, j) && b.Alive(i, j) {
				n++
			}
		}
	}
	return n
}

// liveNeighbors appends the flat indices of live neighbours of (r, c) to buf
// in scan order.
func (b *Board) liveNeighbors(r, c int, buf []int) []int {
	buf = buf[:0]
	for i := r - 1; i <= r+1; i++ {
		for j := c - 1; j <= c+1; j++ {
			if (i != r || j != c) && b.In(i, j) && b.Alive(i, j) {
				buf = append(buf, i*b.Cols+j)
			}
		}
	}
	return buf
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.Alive(r, c) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Field is a per-cell real valued layer with the same shape as a Board.
type Field struct {
	Rows   int
	Cols   int
	Values []float64
}

func NewField(rows, cols int, v float64) *Field {
	f := &Field{Rows: rows, Cols: cols, Values: make([]float64, rows*cols)}
	if v != 0 {
		for i := range f.Values {
			f.Values[i] = v
		}
	}
	return f
}

func (f *Field) At(r, c int) float64 { return f.Values[r*f.Cols+c] }

func (f *Field) Set(r, c int, v float64) { f.Values[r*f.Cols+c] = v }

// Mean averages over every cell of the field, dead cells included.
func (f *Field) Mean() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range f.Values {
		sum += v
	}
	return sum / float64(len(f.Values))
}

func (f *Field) Clone() *Field {
	n := &Field{Rows: f.Rows, Cols: f.Cols, Values: make([]float64, len(f.Values))}
	copy(n.Values, f.Values)
	return n
}

// Thresholds are the heritable rule parameters of a single cell.
type Thresholds struct {
	Lonely  float64 `json:"lonely"`
	Born    float64 `json:"born"`
	Crowded float64 `json:"crowded"`
}

// DefaultThresholds reproduce Conway's B3/S23 rule.
var DefaultThresholds = Thresholds{Lonely: 2, Born: 3, Crowded: 3}

const (
	MinThreshold = 0.0
	MaxThreshold = 8.0
)

// State is one generation of a simulation. A State is never modified once the
// next generation has been computed from it.
type State struct {
	Board   *Board
	Lonely  *Field
	Born    *Field
	Crowded *Field
	Damage  *Field
}

// NewState wraps a board with every threshold field set to t and no damage.
func NewState(b *Board, t Thresholds) *State {
	return &State{
		Board:   b,
		Lonely:  NewField(b.Rows, b.Cols, t.Lonely),
		Born:    NewField(b.Rows, b.Cols, t.Born),
		Crowded: NewField(b.Rows, b.Cols, t.Crowded),
		Damage:  NewField(b.Rows, b.Cols, 0),
	}
}

func (s *State) thresholds(i int) Thresholds {
	return Thresholds{
		Lonely:  s.Lonely.Values[i],
		Born:    s.Born.Values[i],
		Crowded: s.Crowded.Values[i],
	}
}

func (s *State) setThresholds(i int, t Thresholds) {
	s.Lonely.Values[i] = t.Lonely
	s.Born.Values[i] = t.Born
	s.Crowded.Values[i] = t.Crowded
}

// Thresholds returns the rule parameters stored at (r, c).
func (s *State) Thresholds(r, c int) Thresholds {
	return s.thresholds(r*s.Board.Cols + c)
}

// Stats summarises a state: population and the mean of every field over the
// whole grid, dead cells included.
type Stats struct {
	Population  int     `json:"population"`
	MeanLonely  float64 `json:"mean_lonely"`
	MeanBorn    float64 `json:"mean_born"`
	MeanCrowded float64 `json:"mean_crowded"`
	MeanDamage  float64 `json:"mean_damage"`
}

func (s *State) Stats() Stats {
	return Stats{
		Population:  s.Board.Population(),
		MeanLonely:  s.Lonely.Mean(),
		MeanBorn:    s.Born.Mean(),
		MeanCrowded: s.Crowded.Mean(),
		MeanDamage:  s.Damage.Mean(),
	}
}
