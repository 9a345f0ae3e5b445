package utils

// Zero overwrites b with zero bytes. Key material that lived in a slice is
// wiped as soon as the operation holding it returns.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
