package doris

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMultiStatement rejects stacked statements unless explicitly allowed.
var ErrMultiStatement = errors.New("multi-statement SQL is not allowed")

const maxLimit = 1000

// splitStatements splits input on semicolons that sit outside string
// literals, backtick identifiers, and comments. Empty statements are
// dropped.
func splitStatements(input string) []string {
	var stmts []string
	var cur strings.Builder

	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			quote := c
			cur.WriteByte(c)
			i++
			for i < len(input) {
				cur.WriteByte(input[i])
				if input[i] == '\\' && quote != '`' && i+1 < len(input) {
					i++
					cur.WriteByte(input[i])
				} else if input[i] == quote {
					i++
					break
				}
				i++
			}
		case c == '-' && i+1 < len(input) && input[i+1] == '-':
			for i < len(input) && input[i] != '\n' {
				cur.WriteByte(input[i])
				i++
			}
		case c == '/' && i+1 < len(input) && input[i+1] == '*':
			for i < len(input) {
				cur.WriteByte(input[i])
				if input[i] == '*' && i+1 < len(input) && input[i+1] == '/' {
					cur.WriteByte(input[i+1])
					i += 2
					break
				}
				i++
			}
		case c == ';':
			stmts = append(stmts, cur.String())
			cur.Reset()
			i++
		default:
			cur.WriteByte(c)
			i++
		}
	}
	stmts = append(stmts, cur.String())

	var out []string
	for _, s := range stmts {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// keywords returns the bare word tokens of a statement, uppercased, with
// string literals, identifiers, and comments skipped.
func keywords(stmt string) []string {
	var words []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToUpper(cur.String()))
			cur.Reset()
		}
	}

	i := 0
	for i < len(stmt) {
		c := stmt[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			flush()
			quote := c
			i++
			for i < len(stmt) {
				if stmt[i] == '\\' && quote != '`' && i+1 < len(stmt) {
					i += 2
					continue
				}
				if stmt[i] == quote {
					i++
					break
				}
				i++
			}
		case c == '-' && i+1 < len(stmt) && stmt[i+1] == '-':
			flush()
			for i < len(stmt) && stmt[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(stmt) && stmt[i+1] == '*':
			flush()
			for i < len(stmt) {
				if stmt[i] == '*' && i+1 < len(stmt) && stmt[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_':
			cur.WriteByte(c)
			i++
		default:
			flush()
			i++
		}
	}
	flush()
	return words
}

func hasLimit(stmt string) bool {
	for _, w := range keywords(stmt) {
		if w == "LIMIT" {
			return true
		}
	}
	return false
}

func statementType(stmt string) string {
	words := keywords(stmt)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// EnsureLimit appends a LIMIT clause to SELECT/UPDATE/DELETE statements
// that lack one, capping the limit at 1000. Multi-statement input is
// rejected unless allowMulti is set; other statement kinds pass through
// unchanged.
func EnsureLimit(input string, limit int, allowMulti bool) (string, error) {
	if limit > maxLimit {
		limit = maxLimit
	}
	if limit < 1 {
		limit = 1
	}

	stmts := splitStatements(input)
	if len(stmts) > 1 && !allowMulti {
		return "", ErrMultiStatement
	}

	out := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		switch statementType(stmt) {
		case "SELECT", "UPDATE", "DELETE":
			if !hasLimit(stmt) {
				trimmed := strings.TrimRight(stmt, "; \t\n")
				sep := " "
				// A trailing line comment would swallow the clause.
				if strings.LastIndex(trimmed, "--") > strings.LastIndex(trimmed, "\n") {
					sep = "\n"
				}
				stmt = fmt.Sprintf("%s%sLIMIT %d", trimmed, sep, limit)
			}
		}
		out = append(out, stmt)
	}
	return strings.Join(out, ";\n"), nil
}
