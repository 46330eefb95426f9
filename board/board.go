package board

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/SvenDH/go-life-engine/engine"
)

// ReadCSV reads one board row per line. A field equal to "1" is a live cell,
// anything else is dead. Blank fields and blank lines are ignored.
func ReadCSV(r io.Reader) (*engine.Board, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var rows [][]bool
	for _, record := range records {
		var row []bool
		for _, val := range record {
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			row = append(row, val == "1")
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return engine.BoardFromRows(rows)
}

func WriteCSV(w io.Writer, b *engine.Board) error {
	writer := csv.NewWriter(w)
	for r := 0; r < b.Rows; r++ {
		row := make([]string, b.Cols)
		for c := range row {
			if b.Alive(r, c) {
				row[c] = "1"
			} else {
				row[c] = "0"
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Load reads a board file, RLE for ".rle" files and CSV otherwise.
func Load(path string) (*engine.Board, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var b *engine.Board
	if strings.EqualFold(filepath.Ext(path), ".rle") {
		b, err = ReadRLE(file)
	} else {
		b, err = ReadCSV(file)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return b, nil
}

func Save(path string, b *engine.Board) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".rle") {
		err = WriteRLE(file, b)
	} else {
		err = WriteCSV(file, b)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

// Pad surrounds b with margin dead cells on every side.
func Pad(b *engine.Board, margin int) *engine.Board {
	if margin <= 0 {
		return b.Clone()
	}
	n := engine.NewBoard(b.Rows+2*margin, b.Cols+2*margin)
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			n.Set(r+margin, c+margin, b.Alive(r, c))
		}
	}
	return n
}

// Random fills the interior of a rows x cols board with live cells at the given
// density. The border is left dead.
func Random(rows, cols int, density float64, seed uint64) *engine.Board {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	b := engine.NewBoard(rows, cols)
	for r := 1; r < rows-1; r++ {
		for c := 1; c < cols-1; c++ {
			b.Set(r, c, rng.Float64() < density)
		}
	}
	return b
}
