package archive

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrExpectedFile is returned when a regular file was expected.
var ErrExpectedFile = errors.New("expected file, got directory")

// FileHash hashes a file and returns the SHA-256 sum as a hex string.
func FileHash(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", ErrExpectedFile
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return Hash(file)
}

// Hash calculates the SHA-256 hash of data from an io.Reader.
func Hash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// sameContent compares sizes first and only hashes files of equal size.
// A missing b is not an error.
func sameContent(a, b string) (bool, error) {
	ib, err := os.Stat(b)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, ioFailure("stat", b, err)
	}
	ia, err := os.Stat(a)
	if err != nil {
		return false, ioFailure("stat", a, err)
	}
	if ia.Size() != ib.Size() || ia.IsDir() || ib.IsDir() {
		return false, nil
	}
	ha, err := FileHash(a)
	if err != nil {
		return false, ioFailure("hash", a, err)
	}
	hb, err := FileHash(b)
	if err != nil {
		return false, ioFailure("hash", b, err)
	}
	return ha == hb, nil
}
