package query

import (
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/dirtydb/field"
)

// Cursor pages through a select ordered on a single column. The encoded
// form is url-safe base64 of the msgpack payload, so it can be handed to
// clients as an opaque token.
type Cursor struct {
	Column string      `msgpack:"c"`
	Last   field.Value `msgpack:"l"`
	Limit  int         `msgpack:"n"`
	Desc   bool        `msgpack:"d"`
}

// Encode returns the opaque token.
func (c Cursor) Encode() (string, error) {
	data, err := msgpack.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("query: encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor parses a token returned by Encode.
func DecodeCursor(token string) (Cursor, error) {
	var c Cursor
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("query: decode cursor: %w", err)
	}
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("query: decode cursor: %w", err)
	}
	if c.Column == "" {
		return c, fmt.Errorf("query: decode cursor: missing column")
	}
	return c, nil
}

// Apply restricts b to the page after the cursor position.
func (c Cursor) Apply(b *Builder) *Builder {
	if !c.Last.IsNotSet() && !c.Last.IsNull() {
		if c.Desc {
			b.Lt(c.Column, c.Last)
		} else {
			b.Gt(c.Column, c.Last)
		}
	}
	if c.Desc {
		b.Desc(c.Column)
	} else {
		b.Asc(c.Column)
	}
	if c.Limit > 0 {
		b.Limit(c.Limit)
	}
	return b
}

// Next returns the cursor for the page following rows, and false when
// rows is shorter than the page size so no further page exists.
func (c Cursor) Next(rows []field.ColumnAndValue) (Cursor, bool) {
	if len(rows) == 0 || (c.Limit > 0 && len(rows) < c.Limit) {
		return c, false
	}
	next := c
	next.Last = rows[len(rows)-1].Get(c.Column)
	return next, true
}
