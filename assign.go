package queryfold

// Assign copies every entry of source onto target, source winning on key
// collisions. No recursion into nested values takes place and source is
// left unmodified. Returns target, so callers can write
// result = Assign(target, source).
func Assign(target, source *Record) *Record {
	if source == nil {
		return target
	}
	for k, v := range source.All() {
		target.Set(k, v)
	}
	return target
}
