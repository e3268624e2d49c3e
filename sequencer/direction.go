package sequencer

// Intner is the random source used by DirRandom
type Intner interface {
	IntN(n int) int
}

// NextStep returns the step after cur for a track of n steps, and the
// pendulum direction to carry into the next advance.
func NextStep(dir Direction, cur, n, pendulum int, rnd Intner) (next, nextPendulum int) {
	if n < 1 {
		n = 1
	}
	switch dir {
	case DirReverse:
		return ((cur-1)%n + n) % n, pendulum
	case DirPendulum:
		if pendulum == 0 {
			pendulum = 1
		}
		next = cur + pendulum
		if next >= n-1 {
			return n - 1, -1
		}
		if next <= 0 {
			return 0, 1
		}
		return next, pendulum
	case DirRandom:
		return rnd.IntN(n), pendulum
	default:
		return (cur + 1) % n, pendulum
	}
}
