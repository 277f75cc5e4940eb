// Package compress implements a streaming compression state machine: a
// common State contract wrapping three codec engines. Only the
// state-machine contract is hand-rolled here; each engine wraps a real
// codec library instead of reimplementing zlib/brotli/zstd.
package compress

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"errors"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
)

// Mode selects the algorithm and direction: zlib (deflate/gzip/raw plus
// inflate/gunzip/raw/unzip), brotli, or zstd.
type Mode int

// Modes.
const (
	ModeDeflate Mode = iota
	ModeInflate
	ModeGzip
	ModeGunzip
	ModeRawDeflate
	ModeRawInflate
	ModeUnzip // auto-detects Inflate vs Gunzip from the input header
	ModeBrotliEncode
	ModeBrotliDecode
	ModeZstdEncode
	ModeZstdDecode
)

// Flush mirrors zlib's flush codes: values map directly to the underlying
// algorithm's end/flush/continue codes.
type Flush int

// Flush values.
const (
	FlushNone Flush = iota
	FlushPartial
	FlushSync
	FlushFull
	FlushFinish
	FlushBlock
)

// ErrCode mirrors the post-condition classes of the error reporting.
type ErrCode int

// Error codes.
const (
	ErrOK ErrCode = iota
	ErrStreamEnd
	ErrBufError
	ErrNeedDict
	ErrOther
)

// Params carries algorithm tuning knobs; callers may leave this zeroed for
// defaults.
type Params struct {
	Level int // compression level, encoders only
}

// State is the common contract shared by every engine: new/reset/write/
// write_sync/close.
type State struct {
	ID uuid.UUID

	mode Mode
	resolved Mode // for ModeUnzip, the mode actually in effect once detected
	params Params
	callback func()

	// Compression side: bytes written flow through encoder into outBuf.
	encoder io.WriteCloser
	outBuf *bytes.Buffer

	// Decompression side: raw compressed bytes accumulate in rawIn; each
	// write attempts a full decode from scratch (stdlib decompressors are
	// not designed for byte-at-a-time incremental feeding) and tracks how
	// many decoded bytes have already been delivered to the caller.
	rawIn *bytes.Buffer
	delivered int

	// ResultBuf holds [avail_out, avail_in] after the most recent step.
	ResultBuf [2]int

	pendingClose bool
	writeInFlight bool
	closed bool

	lastErr error
	lastCode ErrCode
}

// New constructs a State for the given mode, params and callback; the
// result buffer is the State's own ResultBuf field. callback is invoked
// after an async write completes; WriteSync instead blocks and returns
// immediately.
func New(mode Mode, params Params, callback func()) *State {
	s := &State{
		ID: uuid.New(),
		mode: mode,
		resolved: mode,
		params: params,
		callback: callback,
	}
	s.reset()
	return s
}

// Reset reinitialises the underlying codec, discarding any buffered state.
func (s *State) Reset() { s.reset() }

func (s *State) reset() {
	s.outBuf = &bytes.Buffer{}
	s.rawIn = &bytes.Buffer{}
	s.delivered = 0
	s.pendingClose = false
	s.closed = false
	s.lastErr = nil
	s.lastCode = ErrOK
	s.encoder = nil
	if isEncodeMode(s.mode) {
		s.encoder = s.newEncoder()
	}
}

func isEncodeMode(m Mode) bool {
	switch m {
	case ModeDeflate, ModeGzip, ModeRawDeflate, ModeBrotliEncode, ModeZstdEncode:
		return true
	default:
		return false
	}
}

func (s *State) newEncoder() io.WriteCloser {
	switch s.mode {
	case ModeGzip:
		w, _ := gzip.NewWriterLevel(s.outBuf, levelOrDefault(s.params.Level, gzip.DefaultCompression))
		return w
	case ModeRawDeflate, ModeDeflate:
		w, _ := flate.NewWriter(s.outBuf, levelOrDefault(s.params.Level, flate.DefaultCompression))
		return w
	case ModeBrotliEncode:
		return brotli.NewWriterLevel(s.outBuf, levelOrDefaultBrotli(s.params.Level))
	case ModeZstdEncode:
		return zstdEncoder(s.outBuf, s.params.Level)
	default:
		return nil
	}
}

func levelOrDefault(level, def int) int {
	if level == 0 {
		return def
	}
	return level
}

func levelOrDefaultBrotli(level int) int {
	if level == 0 {
		return brotli.DefaultCompression
	}
	return level
}

// Write implements the async `write` contract: it performs the step
// synchronously (this module has no JS event loop to re-enter) and then
// invokes callback, only after the native step completes. The calling
// engine must not call Close
// while writeInFlight would be true; since this implementation is
// synchronous, in-flight deferral collapses to "run close after this call
// returns" — Write runs a close that Close deferred (pendingClose) once
// the step has finished.
func (s *State) Write(flush Flush, in []byte, inOff, inLen int, out []byte, outOff, outLen int) {
	s.writeInFlight = true
	s.step(flush, in, inOff, inLen, out, outOff, outLen)
	s.writeInFlight = false
	if s.pendingClose {
		s.doClose()
	}
	if s.callback != nil {
		s.callback()
	}
}

// WriteSync implements `write_sync`: identical stepping, no callback.
func (s *State) WriteSync(flush Flush, in []byte, inOff, inLen int, out []byte, outOff, outLen int) {
	s.step(flush, in, inOff, inLen, out, outOff, outLen)
}

func (s *State) step(flush Flush, in []byte, inOff, inLen int, out []byte, outOff, outLen int) {
	if s.closed {
		s.fail(ErrOther, errors.New("write on closed state"))
		return
	}
	chunk := in[inOff : inOff+inLen]

	if isEncodeMode(s.mode) {
		s.stepEncode(flush, chunk, out, outOff, outLen)
		return
	}
	s.stepDecode(flush, chunk, out, outOff, outLen)
}

func (s *State) stepEncode(flush Flush, chunk []byte, out []byte, outOff, outLen int) {
	consumed := 0
	if len(chunk) > 0 {
		n, err := s.encoder.Write(chunk)
		consumed = n
		if err != nil {
			s.fail(ErrOther, err)
			return
		}
	}
	if flush == FlushSync || flush == FlushFull || flush == FlushPartial {
		if f, ok := s.encoder.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if flush == FlushFinish {
		_ = s.encoder.Close()
		s.lastCode = ErrStreamEnd
	} else {
		s.lastCode = ErrOK
	}
	s.drainOutput(out, outOff, outLen, len(chunk)-consumed)
}

func (s *State) stepDecode(flush Flush, chunk []byte, out []byte, outOff, outLen int) {
	s.rawIn.Write(chunk)

	mode := s.resolved
	if s.mode == ModeUnzip {
		mode = s.sniffUnzipMode()
		s.resolved = mode
	}

	decoded, complete, err := decodeAll(mode, s.rawIn.Bytes())
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		s.fail(ErrOther, err)
		return
	}
	if complete {
		s.lastCode = ErrStreamEnd
	} else {
		s.lastCode = ErrOK
	}

	available := decoded[s.delivered:]
	n := copy(out[outOff:outOff+outLen], available)
	s.delivered += n

	s.ResultBuf[0] = outLen - n // avail_out
	s.ResultBuf[1] = 0 // all fed input bytes are retained and re-decoded on the next step
}

// sniffUnzipMode implements the unzip auto-detection: a 1f 8b
// prefix upgrades to gunzip, otherwise inflate; until both header bytes
// are available the engine stalls (stays ModeUnzip).
func (s *State) sniffUnzipMode() Mode {
	b := s.rawIn.Bytes()
	if len(b) < 2 {
		return ModeUnzip
	}
	if b[0] == 0x1f && b[1] == 0x8b {
		return ModeGunzip
	}
	return ModeInflate
}

// decodeAll attempts to fully decode buf under the given mode, returning
// whatever prefix decoded successfully and whether the stream reached a
// clean end.
func decodeAll(mode Mode, buf []byte) (decoded []byte, complete bool, err error) {
	if mode == ModeUnzip {
		return nil, false, nil // header bytes not yet available
	}
	var r io.Reader
	switch mode {
	case ModeGunzip:
		gz, gerr := gzip.NewReader(bytes.NewReader(buf))
		if gerr != nil {
			return nil, false, gerr
		}
		r = gz
	case ModeInflate, ModeRawInflate:
		r = flate.NewReader(bytes.NewReader(buf))
	case ModeBrotliDecode:
		r = brotli.NewReader(bytes.NewReader(buf))
	case ModeZstdDecode:
		r = zstdDecoderReader(buf)
	default:
		return nil, false, errors.New("unsupported decode mode")
	}

	out, rerr := io.ReadAll(r)
	if rerr == nil {
		return out, true, nil
	}
	if errors.Is(rerr, io.ErrUnexpectedEOF) {
		return out, false, rerr
	}
	return out, false, rerr
}

func (s *State) drainOutput(out []byte, outOff, outLen, availIn int) {
	n := copy(out[outOff:outOff+outLen], s.outBuf.Bytes())
	s.outBuf.Next(n)
	s.ResultBuf[0] = outLen - n
	s.ResultBuf[1] = availIn
}

func (s *State) fail(code ErrCode, err error) {
	s.lastCode = code
	s.lastErr = err
}

// LastError returns the most recent unrecoverable error, if any, for a
// caller to surface through its own onerror-style callback.
func (s *State) LastError() (error, ErrCode) { return s.lastErr, s.lastCode }

// Close implements `close(state)`. If a write is in flight, the close is
// deferred until that write completes.
func (s *State) Close() {
	if s.writeInFlight {
		s.pendingClose = true
		return
	}
	s.doClose()
}

func (s *State) doClose() {
	if s.closed {
		return
	}
	if isEncodeMode(s.mode) && s.encoder != nil {
		_ = s.encoder.Close()
	}
	s.closed = true
	s.pendingClose = false
}
