// Package fvalue provides an immutable representation of an arbitrary JSON
// value, used throughout flagcore for flag variations and user custom
// attributes.
package fvalue

import (
	"encoding/json"
	"errors"
	"strconv"
)

// ValueType describes the JSON type of a Value.
type ValueType int

const (
	NullType ValueType = iota
	BoolType
	NumberType
	StringType
	ArrayType
	ObjectType
	RawType
)

func (t ValueType) String() string {
	switch t {
	case NullType:
		return "null"
	case BoolType:
		return "bool"
	case NumberType:
		return "number"
	case StringType:
		return "string"
	case ArrayType:
		return "array"
	case ObjectType:
		return "object"
	case RawType:
		return "raw"
	default:
		return "unknown"
	}
}

var zeroAsInterface interface{} = float64(0)
var emptyStringAsInterface interface{} = ""

// Value is an immutable tagged union representing any JSON value: null,
// boolean, number, string, array, or object. Zero value is Null().
//
// Null, boolean, number and string Values can be compared with ==; an
// array or object Value holds a slice or map, so comparing it with ==
// panics. A Value is never modified after it is built, so it is safe to
// share across goroutines; InnerValue returns a deep copy of an array or
// object.
type Value struct {
	valueType     ValueType
	boolValue     bool
	numberValue   float64
	stringValue   string
	valueInstance interface{}
}

// Null creates a null Value.
func Null() Value { return Value{valueType: NullType} }

// Bool creates a boolean Value.
func Bool(value bool) Value {
	return Value{valueType: BoolType, boolValue: value, valueInstance: value}
}

// Int creates a numeric Value from an integer.
func Int(value int) Value { return Float64(float64(value)) }

// Float64 creates a numeric Value from a float64.
func Float64(value float64) Value {
	if value == 0 {
		return Value{valueType: NumberType, numberValue: 0, valueInstance: zeroAsInterface}
	}
	return Value{valueType: NumberType, numberValue: value, valueInstance: value}
}

// String creates a string Value.
func String(value string) Value {
	if value == "" {
		return Value{valueType: StringType, stringValue: "", valueInstance: emptyStringAsInterface}
	}
	return Value{valueType: StringType, stringValue: value, valueInstance: value}
}

// Raw creates an unparsed JSON Value.
func Raw(value json.RawMessage) Value {
	return Value{valueType: RawType, valueInstance: value}
}

func toSafeValue(value interface{}) interface{} {
	switch o := value.(type) {
	case []interface{}:
		return deepCopyArray(o)
	case map[string]interface{}:
		return deepCopyMap(o)
	default:
		return value
	}
}

func deepCopyArray(a []interface{}) []interface{} {
	ret := make([]interface{}, len(a))
	for i, v := range a {
		ret[i] = toSafeValue(v)
	}
	return ret
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	ret := make(map[string]interface{}, len(m))
	for k, v := range m {
		ret[k] = toSafeValue(v)
	}
	return ret
}

func fromValue(valueAsInterface interface{}, deepCopy bool) Value {
	if valueAsInterface == nil {
		return Null()
	}
	switch o := valueAsInterface.(type) {
	case Value:
		return o
	case bool:
		return Bool(o)
	case int:
		return Float64(float64(o))
	case int8:
		return Float64(float64(o))
	case int16:
		return Float64(float64(o))
	case int32:
		return Float64(float64(o))
	case int64:
		return Float64(float64(o))
	case uint:
		return Float64(float64(o))
	case uint8:
		return Float64(float64(o))
	case uint16:
		return Float64(float64(o))
	case uint32:
		return Float64(float64(o))
	case float32:
		return Float64(float64(o))
	case float64:
		return Value{valueType: NumberType, numberValue: o, valueInstance: valueAsInterface}
	case string:
		return Value{valueType: StringType, stringValue: o, valueInstance: valueAsInterface}
	case []interface{}:
		if deepCopy {
			return ArrayCopy(o)
		}
		return Value{valueType: ArrayType, valueInstance: valueAsInterface}
	case map[string]interface{}:
		if deepCopy {
			return ObjectCopy(o)
		}
		return Value{valueType: ObjectType, valueInstance: valueAsInterface}
	case json.RawMessage:
		return Value{valueType: RawType, valueInstance: valueAsInterface}
	default:
		return Null()
	}
}

// CopyArbitrary creates a Value from an arbitrary interface{} of any type,
// deep-copying slices and maps.
func CopyArbitrary(value interface{}) Value { return fromValue(value, true) }

// ArrayCopy creates an array Value by deep-copying an existing slice.
func ArrayCopy(a []interface{}) Value {
	return Value{valueType: ArrayType, valueInstance: deepCopyArray(a)}
}

// ObjectCopy creates an object Value by deep-copying an existing map.
func ObjectCopy(m map[string]interface{}) Value {
	return Value{valueType: ObjectType, valueInstance: deepCopyMap(m)}
}

// InnerValue converts the Value to its corresponding Go type: nil, bool,
// float64, string, []interface{}, or map[string]interface{}. Slices and
// maps are deep-copied.
func (v Value) InnerValue() interface{} { return toSafeValue(v.valueInstance) }

// Type returns the ValueType of the Value.
func (v Value) Type() ValueType { return v.valueType }

// IsNull reports whether the Value is null.
func (v Value) IsNull() bool { return v.valueType == NullType }

// IsNumber reports whether the Value is numeric.
func (v Value) IsNumber() bool { return v.valueType == NumberType }

// IsInt reports whether the Value is numeric with no fractional component.
func (v Value) IsInt() bool {
	if v.valueType == NumberType {
		return v.numberValue == float64(int(v.numberValue))
	}
	return false
}

// Bool returns the Value as a boolean, or false if it is not one.
func (v Value) Bool() bool { return v.valueType == BoolType && v.boolValue }

// Int returns the Value as an int, truncating toward zero. Returns 0 if not numeric.
func (v Value) Int() int {
	if v.valueType == NumberType {
		return int(v.numberValue)
	}
	return 0
}

// Float64 returns the Value as a float64, or 0 if not numeric.
func (v Value) Float64() float64 {
	if v.valueType == NumberType {
		return v.numberValue
	}
	return 0
}

// String returns the Value as a string, or "" if not a string.
func (v Value) String() string {
	if v.valueType == StringType {
		return v.stringValue
	}
	return ""
}

// AsPointer returns a pointer to a copy of the Value, or nil if it is null.
// Used when producing optional fields in wire structs.
func (v Value) AsPointer() *Value {
	if v.IsNull() {
		return nil
	}
	copied := v
	return &copied
}

// JSONString returns the JSON representation of the Value.
func (v Value) JSONString() string {
	switch v.valueType {
	case NullType:
		return "null"
	case BoolType:
		if v.boolValue {
			return "true"
		}
		return "false"
	case NumberType:
		if v.IsInt() {
			return strconv.Itoa(int(v.numberValue))
		}
		return strconv.FormatFloat(v.numberValue, 'f', -1, 64)
	default:
		bytes, err := json.Marshal(v.valueInstance)
		if err != nil {
			return ""
		}
		return string(bytes)
	}
}

// Count returns the number of elements in an array or object, or 0 otherwise.
func (v Value) Count() int {
	switch o := v.valueInstance.(type) {
	case []interface{}:
		return len(o)
	case map[string]interface{}:
		return len(o)
	}
	return 0
}

// GetByIndex gets an element of an array value by index, or Null() if out of range.
func (v Value) GetByIndex(index int) Value {
	ret, _ := v.TryGetByIndex(index)
	return ret
}

// TryGetByIndex gets an element of an array value by index.
func (v Value) TryGetByIndex(index int) (Value, bool) {
	if v.valueType == ArrayType {
		if a, ok := v.valueInstance.([]interface{}); ok {
			if index >= 0 && index < len(a) {
				return fromValue(a[index], false), true
			}
		}
	}
	return Null(), false
}

// Keys returns the keys of an object value, or nil otherwise.
func (v Value) Keys() []string {
	if v.valueType == ObjectType {
		if m, ok := v.valueInstance.(map[string]interface{}); ok {
			ret := make([]string, 0, len(m))
			for key := range m {
				ret = append(ret, key)
			}
			return ret
		}
	}
	return nil
}

// GetByKey gets a value from an object by key, or Null() if absent.
func (v Value) GetByKey(name string) Value {
	ret, _ := v.TryGetByKey(name)
	return ret
}

// TryGetByKey gets a value from an object by key.
func (v Value) TryGetByKey(name string) (Value, bool) {
	if v.valueType == ObjectType {
		if m, ok := v.valueInstance.(map[string]interface{}); ok {
			if innerValue, ok := m[name]; ok {
				return fromValue(innerValue, false), true
			}
		}
	}
	return Null(), false
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.valueInstance)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	wrapped := make([]byte, 0, len(data)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, data...)
	wrapped = append(wrapped, ']')
	var wrapper []interface{}
	if err := json.Unmarshal(wrapped, &wrapper); err != nil {
		return err
	}
	if len(wrapper) != 1 {
		return errors.New("fvalue: unexpected JSON parsing error")
	}
	*v = fromValue(wrapper[0], false)
	return nil
}
