// Package dice evaluates dice expressions such as "2d6+3" or "d20 - 1".
package dice

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrInvalidExpression indicates a malformed or out-of-range dice expression.
var ErrInvalidExpression = errors.New("invalid dice expression")

const (
	maxDice  = 100
	maxSides = 1000
)

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Dice", Pattern: `\d*[dD]\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Op", Pattern: `[-+]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Expression is the parsed form of a roll: a term followed by signed terms.
type Expression struct {
	Head *Term     `parser:"@@"`
	Tail []*OpTerm `parser:"@@*"`
}

type OpTerm struct {
	Op   string `parser:"@Op"`
	Term *Term  `parser:"@@"`
}

type Term struct {
	Dice  string `parser:"  @Dice"`
	Const *int   `parser:"| @Int"`
}

var exprParser = participle.MustBuild[Expression](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
)

// Source supplies uniformly distributed integers in [0, n).
// *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Result is one evaluated expression.
type Result struct {
	Expression      string
	Total           int
	Rolls           [][]int // one slice per dice term, in expression order
	FormattedString string  // "[4,2] + 3 = 9"
}

// Roller evaluates expressions against a random source.
// Game loop goroutine only.
type Roller struct {
	src Source
}

// NewRoller builds a Roller. A nil source uses a time-seeded generator.
func NewRoller(src Source) *Roller {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Roller{src: src}
}

// Roll parses and evaluates expr. Malformed input returns an error wrapping
// ErrInvalidExpression.
func (r *Roller) Roll(expr string) (Result, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return Result{}, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}
	parsed, err := exprParser.ParseString("", trimmed)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, trimmed, err)
	}

	res := Result{Expression: trimmed}
	var parts []string

	value, text, rolls, err := r.evalTerm(parsed.Head)
	if err != nil {
		return Result{}, err
	}
	res.Total = value
	parts = append(parts, text)
	if rolls != nil {
		res.Rolls = append(res.Rolls, rolls)
	}

	for _, t := range parsed.Tail {
		value, text, rolls, err := r.evalTerm(t.Term)
		if err != nil {
			return Result{}, err
		}
		if t.Op == "-" {
			res.Total -= value
		} else {
			res.Total += value
		}
		parts = append(parts, t.Op, text)
		if rolls != nil {
			res.Rolls = append(res.Rolls, rolls)
		}
	}

	res.FormattedString = fmt.Sprintf("%s = %d", strings.Join(parts, " "), res.Total)
	return res, nil
}

func (r *Roller) evalTerm(t *Term) (int, string, []int, error) {
	if t.Const != nil {
		return *t.Const, strconv.Itoa(*t.Const), nil, nil
	}

	count, sides, err := parseDice(t.Dice)
	if err != nil {
		return 0, "", nil, err
	}
	rolls := make([]int, count)
	faces := make([]string, count)
	total := 0
	for i := range rolls {
		rolls[i] = r.src.Intn(sides) + 1
		faces[i] = strconv.Itoa(rolls[i])
		total += rolls[i]
	}
	return total, "[" + strings.Join(faces, ",") + "]", rolls, nil
}

func parseDice(raw string) (count, sides int, err error) {
	i := strings.IndexAny(raw, "dD")
	count = 1
	if i > 0 {
		count, err = strconv.Atoi(raw[:i])
		if err != nil {
			return 0, 0, fmt.Errorf("%w: dice count %q", ErrInvalidExpression, raw[:i])
		}
	}
	sides, err = strconv.Atoi(raw[i+1:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: dice sides %q", ErrInvalidExpression, raw[i+1:])
	}
	if count < 1 || count > maxDice {
		return 0, 0, fmt.Errorf("%w: dice count must be between 1 and %d", ErrInvalidExpression, maxDice)
	}
	if sides < 1 || sides > maxSides {
		return 0, 0, fmt.Errorf("%w: dice sides must be between 1 and %d", ErrInvalidExpression, maxSides)
	}
	return count, sides, nil
}
