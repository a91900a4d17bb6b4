package cache

// GenerateKey joins a namespace prefix and an id into a cache key.
func GenerateKey(prefix, id string) string {
	return prefix + ":" + id
}
