package array

import (
	"fmt"
	"reflect"
)

// DType is a constraint for the element types the command line tools and
// profiles know how to build. Arrays themselves accept any element type.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// DataType is runtime type information for array elements.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8:
		return 1
	default:
		panic(fmt.Sprintf("array: unknown data type %d", dt))
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(name string) (DataType, error) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Uint8} {
		if dt.String() == name {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", name)
}

// DataTypeOf returns the DataType of T. Named types map to the DataType of
// their underlying type.
func DataTypeOf[T DType]() DataType {
	switch k := reflect.TypeFor[T]().Kind(); k {
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	case reflect.Int32:
		return Int32
	case reflect.Int64:
		return Int64
	case reflect.Uint8:
		return Uint8
	default:
		panic(fmt.Sprintf("array: unsupported element kind %s", k))
	}
}
