package market

import (
	"bytes"
	"io"
	"os"
)

const readBufferSize = 128 * 1024

// CountLines counts the '\n' bytes in the file at path. It reads in
// 128 KiB chunks, so files larger than memory are fine. Errors are the
// underlying I/O errors, unwrapped.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, readBufferSize)
	count := 0
	for {
		n, err := f.Read(buf)
		count += bytes.Count(buf[:n], []byte{'\n'})
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	return count, nil
}
