package types

// AttributePair is a single name/value attribute of a variation
// (e.g. "cor" / "nogueira"). Order is meaningful and preserved.
type AttributePair struct {
	Name  string `json:"nome"`
	Value string `json:"valor"`
}

// AttributePairs is stored as a jsonb column so the declared order survives
// round trips.
type AttributePairs []AttributePair

// Get returns the value for the named attribute and whether it exists.
func (a AttributePairs) Get(name string) (string, bool) {
	for _, pair := range a {
		if pair.Name == name {
			return pair.Value, true
		}
	}
	return "", false
}
