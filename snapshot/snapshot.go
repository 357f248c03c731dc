package snapshot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/distcluster/blobstore"
	"github.com/hupe1980/distcluster/internal/conv"
	"github.com/hupe1980/distcluster/internal/hash"
	"gonum.org/v1/gonum/mat"
)

const (
	magic      = "DCSN"
	version    = 1
	headerSize = 32
)

var (
	// ErrUnknownCodec is returned for an unsupported compression codec.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")
	// ErrCorrupt is returned when a frame fails validation.
	ErrCorrupt = errors.New("snapshot: corrupt frame")
	// ErrShape is returned when initial and final centers differ in shape.
	ErrShape = errors.New("snapshot: shape mismatch")
)

// Snapshot holds the centers a run started from and ended with.
type Snapshot struct {
	Initial    *mat.Dense
	Final      *mat.Dense
	Iterations int
}

// Marshal encodes s into a frame.
func Marshal(s *Snapshot, c Codec) ([]byte, error) {
	k, dim := s.Initial.Dims()
	if fk, fd := s.Final.Dims(); fk != k || fd != dim {
		return nil, fmt.Errorf("%w: initial %dx%d, final %dx%d", ErrShape, k, dim, fk, fd)
	}

	rawSize, err := conv.Mul(2, k, dim, 8)
	if err != nil {
		return nil, err
	}
	fields := [...]int{k, dim, s.Iterations, rawSize}
	var header [len(fields)]uint32
	for i, v := range fields {
		if header[i], err = conv.IntToUint32(v); err != nil {
			return nil, fmt.Errorf("snapshot: header field: %w", err)
		}
	}

	raw := make([]byte, rawSize)
	putMatrix(raw[:rawSize/2], s.Initial)
	putMatrix(raw[rawSize/2:], s.Final)

	packed, err := pack(raw, c)
	if err != nil {
		return nil, err
	}
	payload := raw
	if packed != nil {
		payload = packed
	}

	frame := make([]byte, headerSize+len(payload))
	copy(frame, magic)
	frame[4] = version
	frame[5] = byte(c)
	binary.LittleEndian.PutUint32(frame[8:], header[0])
	binary.LittleEndian.PutUint32(frame[12:], header[1])
	binary.LittleEndian.PutUint32(frame[16:], header[2])
	binary.LittleEndian.PutUint32(frame[20:], hash.CRC32C(raw))
	binary.LittleEndian.PutUint32(frame[24:], header[3])
	binary.LittleEndian.PutUint32(frame[28:], uint32(len(packed)))
	copy(frame[headerSize:], payload)
	return frame, nil
}

// Unmarshal decodes a frame produced by Marshal.
func Unmarshal(frame []byte) (*Snapshot, error) {
	if len(frame) < headerSize || string(frame[:4]) != magic {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if frame[4] != version {
		return nil, fmt.Errorf("%w: version %d", ErrCorrupt, frame[4])
	}

	c := Codec(frame[5])
	sum := binary.LittleEndian.Uint32(frame[20:])
	var fields [5]int
	for i, off := range [...]int{8, 12, 16, 24, 28} {
		v, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(frame[off:]))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		fields[i] = v
	}
	k, dim, iterations, rawSize, packedSize := fields[0], fields[1], fields[2], fields[3], fields[4]

	want, err := conv.Mul(2, k, dim, 8)
	if err != nil || rawSize != want {
		return nil, fmt.Errorf("%w: payload of %d bytes for %dx%d centers", ErrCorrupt, rawSize, k, dim)
	}

	body := frame[headerSize:]
	var raw []byte
	if packedSize == 0 {
		if len(body) != rawSize {
			return nil, fmt.Errorf("%w: truncated payload", ErrCorrupt)
		}
		raw = body
	} else {
		if len(body) != packedSize {
			return nil, fmt.Errorf("%w: truncated payload", ErrCorrupt)
		}
		if raw, err = unpack(body, rawSize, c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}

	if hash.CRC32C(raw) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	return &Snapshot{
		Initial:    getMatrix(raw[:k*dim*8], k, dim),
		Final:      getMatrix(raw[k*dim*8:], k, dim),
		Iterations: iterations,
	}, nil
}

// Write stores s under name.
func Write(ctx context.Context, store blobstore.BlobStore, name string, s *Snapshot, c Codec) error {
	frame, err := Marshal(s, c)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, frame)
}

// Read loads the snapshot stored under name.
func Read(ctx context.Context, store blobstore.BlobStore, name string) (*Snapshot, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	frame, err := blobstore.ReadAll(ctx, blob, nil)
	if err != nil {
		return nil, err
	}
	return Unmarshal(frame)
}

func putMatrix(dst []byte, m *mat.Dense) {
	k, dim := m.Dims()
	off := 0
	for i := 0; i < k; i++ {
		for j := 0; j < dim; j++ {
			binary.LittleEndian.PutUint64(dst[off:], math.Float64bits(m.At(i, j)))
			off += 8
		}
	}
}

// getMatrix copies src so the result never aliases a mapped blob.
func getMatrix(src []byte, k, dim int) *mat.Dense {
	data := make([]float64, k*dim)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[i*8:]))
	}
	return mat.NewDense(k, dim, data)
}
