package query

import "strings"

// ParseQuery parses a query submission. Blank input is the identity query.
// Otherwise the input must start with select, optionally followed by item
// expressions, a by clause and a where clause, in that order.
func ParseQuery(text string) (*ParsedQuery, error) {
	q := &ParsedQuery{Text: text}
	if strings.TrimSpace(text) == "" {
		return q, nil
	}

	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	// Drop the trailing EOF token; the splitter and parsers work on the
	// bare stream.
	tokens = tokens[:len(tokens)-1]

	c, err := splitClauses(tokens)
	if err != nil {
		return nil, err
	}

	q.Select, err = parseItems(c.selectTokens, "select")
	if err != nil {
		return nil, err
	}
	if c.byTokens != nil {
		keys, err := parseItems(c.byTokens, "by")
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, syntaxErrorf(endPos(tokens), "by clause requires at least one key")
		}
		q.Group = &GroupSpec{Keys: keys}
	}
	if c.whereTokens != nil {
		where, err := parseWhere(c.whereTokens)
		if err != nil {
			return nil, err
		}
		if len(where.AndGroups) == 0 {
			return nil, syntaxErrorf(endPos(tokens), "where clause requires a condition")
		}
		q.Where = where
	}
	return q, nil
}

// parseItems parses a comma-separated item list: each item is an
// expression with an optional "alias:" prefix. Empty items are skipped so
// trailing commas are harmless.
func parseItems(tokens []Token, clause string) ([]SelectItem, error) {
	var items []SelectItem
	for _, chunk := range splitTop(tokens, TokenComma) {
		if len(chunk) == 0 {
			continue
		}
		alias, exprTokens, err := splitAlias(chunk, clause)
		if err != nil {
			return nil, err
		}
		expr, err := parseExpr(exprTokens, 0)
		if err != nil {
			return nil, err
		}
		items = append(items, SelectItem{Alias: alias, Expr: expr})
	}
	return items, nil
}

// splitAlias detects an "alias:" prefix on an item. The alias is a single
// identifier or a col[...] form; the colon must sit outside brackets.
func splitAlias(chunk []Token, clause string) (string, []Token, error) {
	colonPos := -1
	depth := 0
	for i, tok := range chunk {
		switch tok.Type {
		case TokenLBracket:
			depth++
		case TokenRBracket:
			depth--
		case TokenColon:
			if depth == 0 {
				colonPos = i
			}
		}
		if colonPos >= 0 {
			break
		}
	}
	if colonPos < 0 {
		return "", chunk, nil
	}

	aliasTokens := chunk[:colonPos]
	exprTokens := chunk[colonPos+1:]
	if len(exprTokens) == 0 {
		return "", nil, syntaxErrorf(chunk[colonPos].Pos, "missing expression after alias in %s clause", clause)
	}
	switch {
	case len(aliasTokens) == 1 && aliasTokens[0].is(TokenIdent):
		return aliasTokens[0].Value, exprTokens, nil
	case len(aliasTokens) == 4 &&
		aliasTokens[0].is(TokenIdent) && aliasTokens[0].Value == "col" &&
		aliasTokens[1].is(TokenLBracket) &&
		(aliasTokens[2].is(TokenString) || aliasTokens[2].is(TokenIdent)) &&
		aliasTokens[3].is(TokenRBracket):
		return aliasTokens[2].Value, exprTokens, nil
	default:
		pos := chunk[colonPos].Pos
		if len(aliasTokens) > 0 {
			pos = aliasTokens[0].Pos
		}
		return "", nil, syntaxErrorf(pos, "alias must be an identifier or col[] in %s clause", clause)
	}
}

// parseWhere parses the where body. Conditions split on commas into AND
// groups; within a group, pipes separate OR alternatives. Comma binds more
// broadly, so "a > 1, b = 2 | c = 3" filters to a > 1 AND (b = 2 OR c = 3).
func parseWhere(tokens []Token) (*WhereClause, error) {
	where := &WhereClause{}
	for _, chunk := range splitTop(tokens, TokenComma) {
		if len(chunk) == 0 {
			continue
		}
		var group OrGroup
		for _, alt := range splitTop(chunk, TokenPipe) {
			if len(alt) == 0 {
				continue
			}
			expr, err := parseExpr(alt, 0)
			if err != nil {
				return nil, err
			}
			group.Alternatives = append(group.Alternatives, expr)
		}
		if len(group.Alternatives) > 0 {
			where.AndGroups = append(where.AndGroups, group)
		}
	}
	return where, nil
}
