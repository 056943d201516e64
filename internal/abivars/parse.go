package abivars

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/msageha/abiprep/internal/model"
)

var repeatRegex = regexp.MustCompile(`^([0-9]+)\*(.+)$`)

// Parse reads an input file back into an ordered parameter set.
//
// A line that starts in column one opens a variable; indented lines continue
// the current variable as additional rows. One token yields a scalar, one row
// of several tokens a []any, several rows a []any of []any. Comments start at
// '#' or '!' outside quotes, "n*v" expands to n copies of v and always yields
// a list, and a double-quoted token reads as the text between the quotes.
func Parse(r io.Reader) (*model.ParameterSet, error) {
	params := model.NewParameterSet()
	var (
		key      string
		rows     [][]any
		repeated bool
	)
	flush := func() {
		if key != "" {
			params.Set(key, collapse(rows, repeated))
		}
		key, rows, repeated = "", nil, false
	}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := stripComment(sc.Text())
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tokens, err := tokenize(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		indented := raw[0] == ' ' || raw[0] == '\t'
		if !indented {
			flush()
			key = tokens[0]
			if params.Has(key) {
				return nil, fmt.Errorf("line %d: duplicate variable %q", lineNo, key)
			}
			tokens = tokens[1:]
		} else if key == "" {
			return nil, fmt.Errorf("line %d: continuation row without a variable", lineNo)
		}
		if len(tokens) == 0 {
			continue
		}
		row, rep, err := parseTokens(tokens)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rows = append(rows, row)
		repeated = repeated || rep
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	flush()
	return params, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*model.ParameterSet, error) {
	return Parse(strings.NewReader(s))
}

// collapse shapes the rows of one variable. A single row reads as a flat
// list, so a one-row matrix does not survive a round trip.
func collapse(rows [][]any, repeated bool) any {
	switch {
	case len(rows) == 0:
		return ""
	case len(rows) == 1 && len(rows[0]) == 1 && !repeated:
		return rows[0][0]
	case len(rows) == 1:
		return rows[0]
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

func stripComment(line string) string {
	inQuote := false
	for i, c := range line {
		switch c {
		case '"':
			inQuote = !inQuote
		case '#', '!':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

// tokenize splits on whitespace, keeping double-quoted text as one token.
func tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
	)
	for _, c := range line {
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteRune(c)
		case !inQuote && (c == ' ' || c == '\t'):
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// parseTokens reports whether the row used the repeat form.
func parseTokens(tokens []string) ([]any, bool, error) {
	var (
		out      []any
		repeated bool
	)
	for _, tok := range tokens {
		if m := repeatRegex.FindStringSubmatch(tok); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				return nil, false, fmt.Errorf("invalid repeat count in %q", tok)
			}
			v := parseToken(m[2])
			for i := 0; i < n; i++ {
				out = append(out, v)
			}
			repeated = true
			continue
		}
		out = append(out, parseToken(tok))
	}
	return out, repeated, nil
}

func parseToken(tok string) any {
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' && !strings.Contains(tok[1:len(tok)-1], `"`) {
		return tok[1 : len(tok)-1]
	}
	if i, err := strconv.Atoi(tok); err == nil {
		return i
	}
	// Fortran double-precision exponent
	f := strings.NewReplacer("d", "e", "D", "e").Replace(tok)
	if v, err := strconv.ParseFloat(f, 64); err == nil && looksNumeric(tok) && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return v
	}
	return tok
}

func looksNumeric(tok string) bool {
	c := tok[0]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}
