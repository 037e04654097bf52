package domain

import (
	"bytes"
	"database/sql/driver"
	"fmt"
)

// JSON is a raw JSON document stored in a TEXT column. The zero value is
// stored as NULL and marshals as JSON null.
type JSON []byte

// IsEmpty reports whether no document is present at all. The literal null
// is a document.
func (j JSON) IsEmpty() bool { return len(bytes.TrimSpace(j)) == 0 }

// IsNull reports whether the document is empty or the literal null.
func (j JSON) IsNull() bool {
	t := bytes.TrimSpace(j)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = bytes.Clone(v)
	case string:
		*j = JSON(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into JSON", src)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler. The document is kept verbatim.
func (j *JSON) UnmarshalJSON(b []byte) error {
	if j == nil {
		return fmt.Errorf("domain: UnmarshalJSON on nil pointer")
	}
	*j = bytes.Clone(b)
	return nil
}

// GormDataType tells GORM to map the type to a TEXT column.
func (JSON) GormDataType() string { return "text" }
