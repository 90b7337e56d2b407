// Copyright (c) 2024 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"io"
	"os"

	"github.com/valyala/bytebufferpool"
)

// Buffer defines the interface for a reusable byte buffer.
// It abstracts the [bytebufferpool.ByteBuffer] type to avoid direct dependencies.
type Buffer interface {
	io.Writer
	io.ReaderFrom
	WriteString(s string) (int, error)
	WriteByte(c byte) error
	Bytes() []byte
	String() string
	Len() int
	Reset()
}

// Pool defines the interface for buffer pooling.
//
// Pool implementations must be safe for concurrent use by multiple goroutines.
type Pool interface {
	Get() Buffer
	Put(b Buffer)
}

// pool wraps [bytebufferpool.Pool] to implement Pool interface.
type pool struct{ p *bytebufferpool.Pool }

// Get returns a buffer from the pool.
func (p *pool) Get() Buffer { return p.p.Get() }

// Put returns a buffer to the pool. Buffers not obtained from a
// bytebufferpool are dropped.
func (p *pool) Put(b Buffer) {
	if buf, ok := b.(*bytebufferpool.ByteBuffer); ok {
		p.p.Put(buf)
	}
}

// Default is the buffer pool shared by key store loading and the JSON logger.
//
// Example:
//
//	buf := gc.Default.Get()
//	defer func() {
//		buf.Reset()
//		gc.Default.Put(buf)
//	}()
//
//	if _, err := buf.ReadFrom(file); err != nil {
//		return fmt.Errorf("read %s: %w", path, err)
//	}
var Default Pool = &pool{p: &bytebufferpool.Pool{}}

// ReadFile reads the named file through a pooled buffer and returns a copy
// of its contents. The copy is owned by the caller; the pooled buffer is
// reset and returned before ReadFile returns.
func ReadFile(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := Default.Get()
	defer func() {
		buf.Reset()
		Default.Put(buf)
	}()

	if _, err := buf.ReadFrom(f); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
