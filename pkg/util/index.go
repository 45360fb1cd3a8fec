package util

func Conditional[T any](cond bool, t, f T) T {
	if cond {
		return t
	} else {
		return f
	}
}
