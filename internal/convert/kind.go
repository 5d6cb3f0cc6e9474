package convert

import (
	"math"
	"reflect"
	"time"
)

//go:generate go tool stringer -type=KindEnum -trimprefix=Kind -output=kind_string.go

// KindEnum classifies Go types by how their values are converted.
type KindEnum int

const (
	_ KindEnum = iota // zero value: opaque type, assignment only

	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTime
	KindDuration
	KindPrimitiveEnum // named int or string type

	// KindTotal is the number of kinds defined above, including the zero kind.
	KindTotal = int(iota)
)

func (k KindEnum) IsNumber() bool {
	return k.IsInteger() || k.IsFloat()
}

func (k KindEnum) IsInteger() bool {
	switch k {
	default:
		return false
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
}

func (k KindEnum) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

func (k KindEnum) IsSigned() bool {
	switch k {
	default:
		return false
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
}

// Bits returns the storage width of numeric kinds. For floats it is the
// mantissa precision, which is what matters when an integer lands in one.
func (k KindEnum) Bits() int {
	switch k {
	default:
		return 0
	case KindInt, KindUint:
		return bitsOfUint()
	case KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32:
		return 32
	case KindInt64, KindUint64:
		return 64
	case KindFloat32:
		return 24
	case KindFloat64:
		return 53
	}
}

func bitsOfUint() int {
	power := 0
	for n := uint(math.MaxUint); n > 0; n >>= 1 {
		power++
	}

	return power
}

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
)

// FromReflectType classifies rtype. Named numeric types other than
// time.Duration keep their underlying numeric kind unless they are small
// enums (named int or string), which become KindPrimitiveEnum.
func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	switch rtype {
	case timeType:
		return KindTime
	case durationType:
		return KindDuration
	}

	if rtype.PkgPath() != "" && (rtype.Kind() == reflect.Int || rtype.Kind() == reflect.String) {
		return KindPrimitiveEnum
	}

	switch rtype.Kind() {
	case reflect.Int:
		return KindInt
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Uint:
		return KindUint
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	default:
		return 0
	}
}
