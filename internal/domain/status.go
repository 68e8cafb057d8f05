package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

type statusKind int

const (
	statusAbsent statusKind = iota
	statusRaw
	statusEnum
)

// StatusValue holds a payment or session status in whichever shape the
// upstream service serialized it: a bare string ("COMPLETED", "Pending") or
// an enumeration-like object exposing a name ({"name":"SUCCESS"}). The two
// upstream services use different conventions; folding them through one
// total Normalize function prevents silent under-counting in aggregates.
type StatusValue struct {
	kind  statusKind
	value string
}

// RawStatus builds a StatusValue from a plain string representation.
func RawStatus(s string) StatusValue {
	return StatusValue{kind: statusRaw, value: s}
}

// EnumStatus builds a StatusValue from an enumeration name.
func EnumStatus(name string) StatusValue {
	return StatusValue{kind: statusEnum, value: name}
}

// IsZero reports whether no status was present at all.
func (v StatusValue) IsZero() bool {
	return v.kind == statusAbsent || v.value == ""
}

// Normalize returns the canonical lowercase status, or "" when absent.
// Normalizing an already-canonical value is a no-op.
func (v StatusValue) Normalize() string {
	return strings.ToLower(strings.TrimSpace(v.value))
}

// String implements fmt.Stringer.
func (v StatusValue) String() string {
	return v.Normalize()
}

// UnmarshalJSON accepts either a JSON string or an object with a "name"
// property.
func (v *StatusValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = RawStatus(s)
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("status: unsupported representation %s", string(data))
	}
	*v = EnumStatus(obj.Name)
	return nil
}

// MarshalJSON always emits the canonical string form.
func (v StatusValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Normalize())
}

// Value implements driver.Valuer so the canonical form is what lands in the
// database.
func (v StatusValue) Value() (driver.Value, error) {
	return v.Normalize(), nil
}

// Scan implements sql.Scanner.
func (v *StatusValue) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v = StatusValue{}
		return nil
	case string:
		*v = RawStatus(s)
		return nil
	case []byte:
		*v = RawStatus(string(s))
		return nil
	default:
		return fmt.Errorf("status: cannot scan %T", src)
	}
}

// FoldStatus collapses a canonical status into one of the three counting
// buckets used by TransactionStats: completed (∪ success), pending
// (∪ processing) or failed (∪ cancelled, error). Statuses outside the three
// buckets, such as refunded, contribute to the total only and fold to "".
func FoldStatus(canonical string) string {
	switch canonical {
	case PaymentStatusCompleted, PaymentStatusSuccess:
		return PaymentStatusCompleted
	case PaymentStatusPending, PaymentStatusProcessing:
		return PaymentStatusPending
	case PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusError:
		return PaymentStatusFailed
	default:
		return ""
	}
}

// IsCompletedStatus reports whether the canonical status counts as revenue.
func IsCompletedStatus(canonical string) bool {
	return canonical == PaymentStatusCompleted || canonical == PaymentStatusSuccess
}
