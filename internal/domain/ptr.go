package domain

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// CloneStrPtr copies the pointed-to value into a fresh pointer.
func CloneStrPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CloneIntPtr copies the pointed-to value into a fresh pointer.
func CloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// StrPtrEqual compares two optional strings by value.
func StrPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IntPtrEqual compares two optional ints by value.
func IntPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
