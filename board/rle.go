package board

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/SvenDH/go-life-engine/engine"
)

// rlePattern is the grammar of the run length encoded pattern format:
//
//	#C optional comments
//	x = 3, y = 3, rule = B3/S23
//	bo$2bo$3o!
type rlePattern struct {
	Header *rleHeader `parser:"@@?"`
	Items  []*rleItem `parser:"@@*"`
}

type rleHeader struct {
	Width  int    `parser:"\"x\" \"=\" @Int"`
	Height int    `parser:"\",\" \"y\" \"=\" @Int"`
	Rule   string `parser:"( \",\" \"rule\" \"=\" @Rule )?"`
}

type rleItem struct {
	Count int    `parser:"@Int?"`
	Tag   string `parser:"@Tag"`
}

var rleParser = participle.MustBuild[rlePattern](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "whitespace", Pattern: `\s+`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Keyword", Pattern: `rule|x|y`},
		{Name: "Rule", Pattern: `[Bb]?[0-9]*/[BbSs]?[0-9]*`},
		{Name: "Int", Pattern: `\d+`},
		{Name: "Tag", Pattern: `[a-zA-Z$]`},
		{Name: "Punct", Pattern: `[=,]`},
	})),
	participle.Elide("whitespace", "Comment"),
)

// MaxCells bounds the boards ReadRLE will allocate.
const MaxCells = 1 << 26

// ReadRLE parses a run length encoded pattern of at most MaxCells cells. Tag
// "b" is dead, "$" ends a row and every other letter is a live cell. Anything
// after "!" is ignored.
func ReadRLE(r io.Reader) (*engine.Board, error) {
	return ReadRLELimit(r, MaxCells)
}

// ReadRLELimit is ReadRLE with a caller supplied bound on rows*cols. The bound
// is checked against the header and every run before anything is allocated.
func ReadRLELimit(r io.Reader, maxCells int) (*engine.Board, error) {
	if maxCells < 1 || maxCells > math.MaxInt/4 {
		return nil, fmt.Errorf("%w: cell limit %d out of range", engine.ErrInvalidParameter, maxCells)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, _, _ := strings.Cut(string(data), "!")
	pattern, err := rleParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidBoard, err)
	}

	tooLarge := func(rows, cols int) error {
		if rows > maxCells || cols > maxCells || (cols > 0 && rows > maxCells/cols) {
			return fmt.Errorf("%w: pattern exceeds %d cells", engine.ErrInvalidBoard, maxCells)
		}
		return nil
	}

	rows, cols := 0, 0
	if h := pattern.Header; h != nil {
		if err := tooLarge(h.Height, h.Width); err != nil {
			return nil, err
		}
		rows, cols = h.Height, h.Width
	}

	var live [][2]int
	row, col := 0, 0
	for _, item := range pattern.Items {
		n := item.Count
		if n == 0 {
			n = 1
		}
		if n > maxCells {
			return nil, tooLarge(n, 1)
		}
		if item.Tag == "$" {
			row += n
			col = 0
			rows = max(rows, row)
		} else {
			rows = max(rows, row+1)
			cols = max(cols, col+n)
		}
		if err := tooLarge(rows, cols); err != nil {
			return nil, err
		}
		if item.Tag != "$" && item.Tag != "b" {
			for i := 0; i < n; i++ {
				live = append(live, [2]int{row, col + i})
			}
		}
		if item.Tag != "$" {
			col += n
		}
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: empty pattern", engine.ErrInvalidBoard)
	}

	b := engine.NewBoard(rows, cols)
	for _, rc := range live {
		b.Set(rc[0], rc[1], true)
	}
	return b, nil
}

type rleRun struct {
	n   int
	tag byte
}

// WriteRLE encodes b in the run length encoded pattern format.
func WriteRLE(w io.Writer, b *engine.Board) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "x = %d, y = %d, rule = B3/S23\n", b.Cols, b.Rows)

	line := 0
	emit := func(n int, tag byte) {
		token := string(tag)
		if n > 1 {
			token = strconv.Itoa(n) + token
		}
		if line+len(token) > 70 {
			sb.WriteByte('\n')
			line = 0
		}
		sb.WriteString(token)
		line += len(token)
	}

	cur := 0
	for r := 0; r < b.Rows; r++ {
		var runs []rleRun
		for c := 0; c < b.Cols; c++ {
			tag := byte('b')
			if b.Alive(r, c) {
				tag = 'o'
			}
			if k := len(runs) - 1; k >= 0 && runs[k].tag == tag {
				runs[k].n++
			} else {
				runs = append(runs, rleRun{1, tag})
			}
		}
		// trailing dead cells are implied
		if k := len(runs) - 1; k >= 0 && runs[k].tag == 'b' {
			runs = runs[:k]
		}
		if len(runs) == 0 {
			continue
		}
		if r > cur {
			emit(r-cur, '$')
			cur = r
		}
		for _, run := range runs {
			emit(run.n, run.tag)
		}
	}
	sb.WriteString("!\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
