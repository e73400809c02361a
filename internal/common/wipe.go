package common

// WipeByteArray zeroes b. The CLI calls it on passwords read from the
// terminal once the request carrying them has been sent.
func WipeByteArray(b []byte) {
	clear(b)
}
