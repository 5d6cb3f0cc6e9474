package convert

// CategoryEnum selects which cross-kind conversions a Registry performs.
// Same-kind conversions are always permitted.
type CategoryEnum int

// ConversionPair is a (from, to) kind pair.
type ConversionPair struct {
	From, To KindEnum
}

const (
	CategorySafeNumber   CategoryEnum = 1 << iota // int, uint, float without precision loss
	CategoryUnsafeNumber                          // int, uint, float with possible precision loss
	CategoryTextNumber                            // string <-> number
	CategoryNumericBool                           // int <-> bool as 0/1
	CategoryTextualBool                           // string <-> bool: yes, no, on, off, true, false
	CategoryDatetime                              // string(RFC3339Nano) <-> time.Time
	CategoryDuration                              // string(2h45m) <-> time.Duration
	CategoryNanoseconds                           // int(nanoseconds) <-> time.Duration
	CategorySeconds                               // float(seconds) <-> time.Duration
	CategoryEnumString                            // string or int <-> named enum type

	CategoryAll  = (1 << iota) - 1 // all categories combined
	CategoryNone = 0               // same-kind conversions only
)

var conversionPairs map[CategoryEnum]map[ConversionPair]struct{}

func init() {
	conversionPairs = make(map[CategoryEnum]map[ConversionPair]struct{})

	for _, c := range []CategoryEnum{
		CategorySafeNumber, CategoryUnsafeNumber, CategoryTextNumber, CategoryNumericBool,
		CategoryTextualBool, CategoryDatetime, CategoryDuration, CategoryNanoseconds,
		CategorySeconds, CategoryEnumString,
	} {
		conversionPairs[c] = map[ConversionPair]struct{}{}
	}

	for from := KindEnum(1); int(from) < KindTotal; from++ {
		for to := KindEnum(1); int(to) < KindTotal; to++ {
			classifyPair(from, to)
		}
	}
}

func classifyPair(from, to KindEnum) {
	pair := ConversionPair{from, to}

	switch {
	case from.IsNumber() && to.IsNumber():
		if isSafeNumber(from, to) {
			conversionPairs[CategorySafeNumber][pair] = struct{}{}
		} else {
			conversionPairs[CategoryUnsafeNumber][pair] = struct{}{}
		}
	case from.IsNumber() && to == KindString, from == KindString && to.IsNumber():
		conversionPairs[CategoryTextNumber][pair] = struct{}{}
	case from.IsInteger() && to == KindBool, from == KindBool && to.IsInteger():
		conversionPairs[CategoryNumericBool][pair] = struct{}{}
	case from == KindString && to == KindBool, from == KindBool && to == KindString:
		conversionPairs[CategoryTextualBool][pair] = struct{}{}
	case from == KindString && to == KindTime, from == KindTime && to == KindString:
		conversionPairs[CategoryDatetime][pair] = struct{}{}
	case from == KindString && to == KindDuration, from == KindDuration && to == KindString:
		conversionPairs[CategoryDuration][pair] = struct{}{}
	case from.IsInteger() && to == KindDuration, from == KindDuration && to.IsInteger():
		conversionPairs[CategoryNanoseconds][pair] = struct{}{}
	case from.IsFloat() && to == KindDuration, from == KindDuration && to.IsFloat():
		conversionPairs[CategorySeconds][pair] = struct{}{}
	case from == KindPrimitiveEnum || to == KindPrimitiveEnum:
		other := from
		if other == KindPrimitiveEnum {
			other = to
		}

		if other == KindString || other.IsInteger() || other == KindPrimitiveEnum {
			conversionPairs[CategoryEnumString][pair] = struct{}{}
		}
	}
}

// isSafeNumber reports whether every value of from is representable in to.
func isSafeNumber(from, to KindEnum) bool {
	switch {
	case from.IsFloat():
		return to.IsFloat() && to.Bits() >= from.Bits()
	case to.IsFloat():
		return from.Bits() <= to.Bits()
	case from.IsSigned() == to.IsSigned():
		return to.Bits() >= from.Bits()
	case !from.IsSigned():
		return to.Bits() > from.Bits()
	default:
		return false
	}
}

// Allowed reports whether categories permit converting from one kind to
// another. Opaque kinds (zero) are never converted across kinds.
func (c CategoryEnum) Allowed(from, to KindEnum) bool {
	if from == to {
		return true
	}

	pair := ConversionPair{from, to}
	for cat, pairs := range conversionPairs {
		if c&cat == 0 {
			continue
		}

		if _, ok := pairs[pair]; ok {
			return true
		}
	}

	return false
}
