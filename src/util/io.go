// io.go provides the compiler's only two points of contact with the
// filesystem: reading UTF-8 source and writing the finished artifact.
//
// cygnic targets a register-less bytecode VM rather than a native
// assembler, and the pipeline is single-threaded and synchronous, so there
// is nothing to fan in: WriteArtifact, and ReadSource for a named file, are
// plain blocking calls. Only ReadSource's empty-path case reads stdin on a
// goroutine, bounded by a 500ms timeout (see DESIGN.md).

package util

import (
	"bufio"
	"errors"
	"io"
	"os"
	"time"
)

// ReadSource reads UTF-8 source code from path, or from stdin (with a short
// grace period) if path is empty.
func ReadSource(path string) (string, error) {
	if len(path) > 0 {
		b, err := os.ReadFile(path)
		return string(b), err
	}

	c := make(chan string, 1)
	cerr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		b, err := io.ReadAll(reader)
		if err != nil {
			cerr <- err
			return
		}
		c <- string(b)
	}()

	select {
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("expected input from stdin, got none")
	case err := <-cerr:
		return "", err
	case s := <-c:
		return s, nil
	}
}

// WriteArtifact writes the final bytecode artifact to path, truncating and
// creating the file as necessary.
func WriteArtifact(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
