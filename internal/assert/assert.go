package assert

import (
	"fmt"
	"reflect"
)

// NotNil panics if value is nil, this includes nil pointers (and other
// nillable kinds) stored in an interface.
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			panic(fmt.Sprintf("expected value to be not nil, got a nil %s", v.Type()))
		}
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

func Positive[N ~int | ~int64](name string, n N) {
	if n <= 0 {
		panic(fmt.Sprintf("expected %s to be positive, got %d", name, n))
	}
}
