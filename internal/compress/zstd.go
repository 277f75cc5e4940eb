package compress

import (
	"bytes"
	"io"

	"github.com/DataDog/zstd"
)

func zstdEncoder(w io.Writer, level int) io.WriteCloser {
	if level == 0 {
		level = zstd.DefaultCompression
	}
	return zstd.NewWriterLevel(w, level)
}

func zstdDecoderReader(buf []byte) io.Reader {
	return zstd.NewReader(bytes.NewReader(buf))
}
