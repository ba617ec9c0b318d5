package utils

func StringPtr(s string) *string {
	return &s
}

func StringPtrNillable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Int64Ptr(i int64) *int64 {
	return &i
}

// GetOrDefault returns the value if the pointer is not nil, otherwise returns the default value
func GetOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr == nil {
		return defaultVal
	}
	return *ptr
}
