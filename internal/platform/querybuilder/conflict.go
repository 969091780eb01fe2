package querybuilder

import "strings"

// ConflictClause renders ON CONFLICT (...) DO UPDATE for Postgres upserts.
type ConflictClause struct {
	keys   []string
	update []string
	extra  []string
	where  string
}

func OnConflict(keys ...string) *ConflictClause {
	return &ConflictClause{keys: append([]string(nil), keys...)}
}

// DoUpdate copies each column from EXCLUDED. Key columns are ignored.
func (c *ConflictClause) DoUpdate(columns ...string) *ConflictClause {
	keys := make(map[string]struct{}, len(c.keys))
	for _, key := range c.keys {
		keys[key] = struct{}{}
	}
	for _, col := range columns {
		if _, isKey := keys[col]; isKey {
			continue
		}
		c.update = append(c.update, col)
	}
	return c
}

// Set adds a raw assignment such as "updated_at = NOW()".
func (c *ConflictClause) Set(assignment string) *ConflictClause {
	c.extra = append(c.extra, strings.TrimSpace(assignment))
	return c
}

// Where guards the update; rows failing it are left untouched.
func (c *ConflictClause) Where(condition string) *ConflictClause {
	c.where = strings.TrimSpace(condition)
	return c
}

func (c *ConflictClause) String() string {
	var sb strings.Builder
	sb.WriteString("ON CONFLICT (")
	sb.WriteString(strings.Join(c.keys, ", "))
	sb.WriteString(")")

	assignments := make([]string, 0, len(c.update)+len(c.extra))
	for _, col := range c.update {
		assignments = append(assignments, col+" = EXCLUDED."+col)
	}
	assignments = append(assignments, c.extra...)
	if len(assignments) == 0 {
		sb.WriteString(" DO NOTHING")
		return sb.String()
	}

	sb.WriteString(" DO UPDATE SET ")
	sb.WriteString(strings.Join(assignments, ", "))
	if c.where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(c.where)
	}
	return sb.String()
}
