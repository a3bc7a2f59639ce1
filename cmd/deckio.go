/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const stdioPath = "-"

// layered closes its parts innermost first so gzip trailers reach the file.
type layered struct {
	closers []func() error
}

func (l *layered) push(fn func() error) { l.closers = append([]func() error{fn}, l.closers...) }

func (l *layered) Close() error {
	var errs []error
	for _, fn := range l.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

type deckReader struct {
	io.Reader
	*layered
}

type deckWriter struct {
	io.Writer
	*layered
}

func wantsGzip(path string, explicit bool) bool {
	return explicit || (path != stdioPath && strings.HasSuffix(strings.ToLower(path), ".gz"))
}

// openDeckInput opens path, or stdin for "-", decompressing when asked or when the name ends in .gz.
func openDeckInput(stdin io.Reader, path string, gz bool) (io.ReadCloser, error) {
	r := &deckReader{Reader: stdin, layered: &layered{}}
	if path != stdioPath {
		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("打开卡牌文件失败: %w", err)
		}
		r.Reader = file
		r.push(file.Close)
	}
	if wantsGzip(path, gz) {
		gzr, err := gzip.NewReader(r.Reader)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("创建 gzip 读取器失败: %w", err)
		}
		r.Reader = gzr
		r.push(gzr.Close)
	}
	return r, nil
}

// createDeckOutput creates path and its parent directory, or writes to stdout for "-".
func createDeckOutput(stdout io.Writer, path string, gz bool) (io.WriteCloser, error) {
	w := &deckWriter{Writer: stdout, layered: &layered{}}
	if path != stdioPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建输出目录失败: %w", err)
			}
		}
		file, err := os.Create(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("创建输出文件失败: %w", err)
		}
		w.Writer = file
		w.push(file.Close)
	}
	if wantsGzip(path, gz) {
		gzw := gzip.NewWriter(w.Writer)
		w.Writer = gzw
		w.push(gzw.Close)
	}
	return w, nil
}
