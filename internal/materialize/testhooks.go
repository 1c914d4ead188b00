package materialize

// SetMoveForTests overrides the final move into the collection during tests.
func SetMoveForTests(fn func(src, dst string) error) func() {
	previous := moveIntoPlace
	moveIntoPlace = fn
	return func() {
		moveIntoPlace = previous
	}
}
