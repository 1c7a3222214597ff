package query

// clauses is the outcome of splitting a token stream into the three query
// clauses. A nil slice means the clause was absent; an empty non-nil slice
// means the keyword appeared with no body.
type clauses struct {
	selectTokens []Token
	byTokens     []Token
	whereTokens  []Token
}

// splitClauses validates clause structure and splits the token stream
// after the leading select keyword. Clauses must appear in select, by,
// where order, each at most once, and the where/by keywords must sit
// outside any parentheses or brackets.
func splitClauses(tokens []Token) (clauses, error) {
	if len(tokens) == 0 || !tokens[0].is(TokenSelect) {
		pos := 0
		if len(tokens) > 0 {
			pos = tokens[0].Pos
		}
		return clauses{}, syntaxErrorf(pos, "query must start with select")
	}
	rest := tokens[1:]

	var c clauses
	current := &c.selectTokens
	c.selectTokens = []Token{}
	parenDepth, bracketDepth := 0, 0
	for _, tok := range rest {
		switch tok.Type {
		case TokenLParen:
			parenDepth++
		case TokenRParen:
			parenDepth--
			if parenDepth < 0 {
				return clauses{}, syntaxErrorf(tok.Pos, "unmatched closing parenthesis")
			}
		case TokenLBracket:
			bracketDepth++
		case TokenRBracket:
			bracketDepth--
			if bracketDepth < 0 {
				return clauses{}, syntaxErrorf(tok.Pos, "unmatched closing bracket")
			}
		}
		if parenDepth > 0 || bracketDepth > 0 {
			*current = append(*current, tok)
			continue
		}
		switch tok.Type {
		case TokenSelect:
			return clauses{}, syntaxErrorf(tok.Pos, "duplicate select clause")
		case TokenBy:
			if c.byTokens != nil {
				return clauses{}, syntaxErrorf(tok.Pos, "duplicate by clause")
			}
			if c.whereTokens != nil {
				return clauses{}, syntaxErrorf(tok.Pos, "by clause must come before where")
			}
			c.byTokens = []Token{}
			current = &c.byTokens
		case TokenWhere:
			if c.whereTokens != nil {
				return clauses{}, syntaxErrorf(tok.Pos, "duplicate where clause")
			}
			c.whereTokens = []Token{}
			current = &c.whereTokens
		default:
			*current = append(*current, tok)
		}
	}
	if parenDepth > 0 {
		return clauses{}, syntaxErrorf(endPos(rest), "unmatched opening parenthesis")
	}
	if bracketDepth > 0 {
		return clauses{}, syntaxErrorf(endPos(rest), "unmatched opening bracket")
	}
	return c, nil
}

// splitTop splits tokens at every top-level occurrence of the delimiter
// type, ignoring delimiters nested inside parentheses or brackets. The
// delimiters themselves are dropped.
func splitTop(tokens []Token, delim TokenType) [][]Token {
	var result [][]Token
	var current []Token
	parenDepth, bracketDepth := 0, 0
	for _, tok := range tokens {
		switch tok.Type {
		case TokenLParen:
			parenDepth++
		case TokenRParen:
			parenDepth--
		case TokenLBracket:
			bracketDepth++
		case TokenRBracket:
			bracketDepth--
		}
		if tok.Type == delim && parenDepth == 0 && bracketDepth == 0 {
			result = append(result, current)
			current = nil
			continue
		}
		current = append(current, tok)
	}
	return append(result, current)
}

// matchBracket returns the index just past the bracket that closes the
// opening bracket at tokens[open]. tokens[open] must be TokenLBracket.
func matchBracket(tokens []Token, open int) (int, error) {
	depth := 1
	for i := open + 1; i < len(tokens); i++ {
		switch tokens[i].Type {
		case TokenLBracket:
			depth++
		case TokenRBracket:
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, syntaxErrorf(tokens[open].Pos, "unmatched opening bracket")
}

// matchParen is matchBracket for parentheses.
func matchParen(tokens []Token, open int) (int, error) {
	depth := 1
	for i := open + 1; i < len(tokens); i++ {
		switch tokens[i].Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, syntaxErrorf(tokens[open].Pos, "unmatched opening parenthesis")
}

func endPos(tokens []Token) int {
	if len(tokens) == 0 {
		return 0
	}
	last := tokens[len(tokens)-1]
	return last.Pos + len(last.Value)
}
