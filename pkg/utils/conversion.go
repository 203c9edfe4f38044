package utils

// Ptr returns a pointer to v. Handy for the many optional card fields.
func Ptr[T any](v T) *T {
	return &v
}
