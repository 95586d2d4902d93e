//go:build !linux

package memfd

func create(name string, flags Flags) (int, error) {
	return -1, ErrNotSupported
}

func addSeals(fd int, seals Seal) error {
	return ErrNotSupported
}

func getSeals(fd int) (Seal, error) {
	return 0, ErrNotSupported
}

func supported() bool {
	return false
}

func isNosysErrno(err error) bool {
	return false
}

func mapShared(f *File, write bool) ([]byte, error) {
	return nil, ErrNotSupported
}

func unmap(data []byte) error {
	return ErrNotSupported
}
