// Package schema declares the columns of every survey table and binds them
// to the typed records through explicit accessors. The same declarations
// drive cell edits, the save file and report rendering.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownColumn  = errors.New("unknown column")
	ErrReadOnlyColumn = errors.New("read-only column")
	ErrInvalidValue   = errors.New("invalid cell value")
)

// Kind 셀 값 종류
type Kind int

const (
	Text Kind = iota
	Int
)

// Row 저장 파일의 행 (열 키 → 셀 값)
type Row map[string]json.RawMessage

// Column 열 정의
type Column[R any] struct {
	Key     string
	Header  string
	Kind    Kind
	Default string
	// Hidden columns are persisted but never rendered in reports.
	Hidden bool
	// ReadOnly columns are derived; cell edits are rejected.
	ReadOnly bool
	// Virtual columns are rendered and editable but not persisted.
	Virtual bool
	Get     func(*R) string
	Set     func(*R, string) error
	// Format renders the report cell. Nil falls back to Get.
	Format func(*R) string
}

// Table 표 정의
type Table[R any] struct {
	Key   string
	Title string
	// IDKey names the column holding the row identity. Defaults to "id".
	IDKey   string
	Columns []Column[R]
}

func (t *Table[R]) column(key string) (*Column[R], bool) {
	for i := range t.Columns {
		if t.Columns[i].Key == key {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

func (t *Table[R]) idKey() string {
	if t.IDKey == "" {
		return "id"
	}
	return t.IDKey
}

// ID 행 식별자
func (t *Table[R]) ID(r *R) string {
	c, ok := t.column(t.idKey())
	if !ok {
		return ""
	}
	return c.Get(r)
}

// SetID 행 식별자 지정
func (t *Table[R]) SetID(r *R, id string) error {
	c, ok := t.column(t.idKey())
	if !ok {
		return fmt.Errorf("%s: %w: %s", t.Key, ErrUnknownColumn, t.idKey())
	}
	return c.Set(r, id)
}

// Visible 보고서에 표시되는 열
func (t *Table[R]) Visible() []Column[R] {
	var cols []Column[R]
	for _, c := range t.Columns {
		if !c.Hidden {
			cols = append(cols, c)
		}
	}
	return cols
}

// Headers 보고서 머리행
func (t *Table[R]) Headers() []string {
	var hs []string
	for _, c := range t.Visible() {
		hs = append(hs, c.Header)
	}
	return hs
}

// Cells renders a row for reports. Int columns become ints so spreadsheets
// keep them numeric.
func (t *Table[R]) Cells(r *R) []any {
	var cells []any
	for _, c := range t.Visible() {
		cells = append(cells, c.render(r))
	}
	return cells
}

func (c *Column[R]) render(r *R) any {
	if c.Format != nil {
		return c.Format(r)
	}
	v := c.Get(r)
	if c.Kind == Int {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return v
}

// Blank reports whether every visible, editable cell is empty.
func (t *Table[R]) Blank(r *R) bool {
	for _, c := range t.Visible() {
		if c.ReadOnly {
			continue
		}
		if strings.TrimSpace(c.Get(r)) != "" {
			return false
		}
	}
	return true
}

// Defaults applies column defaults to a fresh row.
func (t *Table[R]) Defaults(r *R) error {
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Default == "" {
			continue
		}
		if err := c.Set(r, c.Default); err != nil {
			return fmt.Errorf("%s.%s: %w", t.Key, c.Key, err)
		}
	}
	return nil
}

// Update is a user cell edit: unknown and derived columns are rejected.
func (t *Table[R]) Update(r *R, key, value string) error {
	c, ok := t.column(key)
	if !ok || c.Hidden {
		return fmt.Errorf("%s: %w: %s", t.Key, ErrUnknownColumn, key)
	}
	if c.ReadOnly {
		return fmt.Errorf("%s: %w: %s", t.Key, ErrReadOnlyColumn, key)
	}
	if err := c.Set(r, value); err != nil {
		return fmt.Errorf("%s.%s: %w", t.Key, key, err)
	}
	return nil
}

// Get 셀 값 조회
func (t *Table[R]) Get(r *R, key string) (string, error) {
	c, ok := t.column(key)
	if !ok {
		return "", fmt.Errorf("%s: %w: %s", t.Key, ErrUnknownColumn, key)
	}
	return c.Get(r), nil
}

// Encode 저장 파일 행으로 변환
func (t *Table[R]) Encode(r *R) Row {
	row := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		if c.Virtual {
			continue
		}
		v := c.Get(r)
		if c.Kind == Int {
			n, _ := strconv.Atoi(v)
			row[c.Key] = json.RawMessage(strconv.Itoa(n))
			continue
		}
		b, _ := json.Marshal(v)
		row[c.Key] = b
	}
	return row
}

// Decode fills r from a save-file row. Missing cells take the column
// default and unknown keys are ignored.
func (t *Table[R]) Decode(row Row, r *R) error {
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Virtual {
			continue
		}
		raw, ok := row[c.Key]
		if !ok || isNull(raw) {
			if c.Default != "" {
				if err := c.Set(r, c.Default); err != nil {
					return fmt.Errorf("%s.%s: %w", t.Key, c.Key, err)
				}
			}
			continue
		}
		v, err := decodeCell(c.Kind, raw)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.Key, c.Key, err)
		}
		if err := c.Set(r, v); err != nil {
			return fmt.Errorf("%s.%s: %w", t.Key, c.Key, err)
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeCell(kind Kind, raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if kind == Int && strings.TrimSpace(s) != "" {
			if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
				return "", fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, s)
			}
			return strings.TrimSpace(s), nil
		}
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		if kind == Int {
			i, err := n.Int64()
			if err != nil {
				return "", fmt.Errorf("%w: %s is not an integer", ErrInvalidValue, n)
			}
			return strconv.FormatInt(i, 10), nil
		}
		return n.String(), nil
	}
	var b bool
	if kind == Text {
		if err := json.Unmarshal(raw, &b); err == nil {
			return strconv.FormatBool(b), nil
		}
	}
	return "", fmt.Errorf("%w: unsupported cell %s", ErrInvalidValue, string(raw))
}

// TextColumn binds a string field.
func TextColumn[R any](key, header string, field func(*R) *string) Column[R] {
	return Column[R]{
		Key:    key,
		Header: header,
		Kind:   Text,
		Get:    func(r *R) string { return *field(r) },
		Set: func(r *R, v string) error {
			*field(r) = v
			return nil
		},
	}
}

// IntColumn binds an int field; blank input stores 0.
func IntColumn[R any](key, header string, field func(*R) *int) Column[R] {
	return Column[R]{
		Key:    key,
		Header: header,
		Kind:   Int,
		Get:    func(r *R) string { return strconv.Itoa(*field(r)) },
		Set: func(r *R, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*field(r) = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
			}
			*field(r) = n
			return nil
		},
	}
}

// HiddenColumn binds a persisted identifier or reference field.
func HiddenColumn[R any](key string, field func(*R) *string) Column[R] {
	c := TextColumn(key, key, field)
	c.Hidden = true
	return c
}

// AsReadOnly marks a derived column.
func (c Column[R]) AsReadOnly() Column[R] {
	c.ReadOnly = true
	return c
}
