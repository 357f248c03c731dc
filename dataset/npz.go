package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

const (
	observationsEntry = "X.npy"
	labelsEntry       = "Y.npy"
)

var (
	// ErrMissingArray is returned when an archive has no X array.
	ErrMissingArray = errors.New("dataset: missing array")
	// ErrUnsupportedDType is returned for arrays that are not numeric.
	ErrUnsupportedDType = errors.New("dataset: unsupported dtype")
	// ErrShape is returned for arrays with an unexpected shape.
	ErrShape = errors.New("dataset: invalid shape")
)

func decodeArchive(data []byte) (*Dataset, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("dataset: open archive: %w", err)
	}

	var xf, yf *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case observationsEntry:
			xf = f
		case labelsEntry:
			yf = f
		}
	}
	if xf == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingArray, observationsEntry)
	}

	values, shape, err := readEntry(xf)
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 || shape[0] == 0 || shape[1] == 0 {
		return nil, fmt.Errorf("%w: X has shape %v, want 2-D", ErrShape, shape)
	}
	ds := &Dataset{X: mat.NewDense(shape[0], shape[1], values)}

	if yf == nil {
		return ds, nil
	}
	labels, shape, err := readEntry(yf)
	if err != nil {
		return nil, err
	}
	if rows, _ := ds.X.Dims(); len(shape) != 1 || shape[0] != rows {
		return nil, fmt.Errorf("%w: Y has shape %v, want (%d,)", ErrShape, shape, rows)
	}
	ds.Y = make([]int64, len(labels))
	for i, v := range labels {
		ds.Y[i] = int64(v)
	}
	return ds, nil
}

func readEntry(f *zip.File) ([]float64, []int, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: open %s: %w", f.Name, err)
	}
	defer rc.Close()

	values, shape, err := readArray(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: read %s: %w", f.Name, err)
	}
	return values, shape, nil
}

// readArray decodes one .npy array into row-major float64 values.
func readArray(r io.Reader) ([]float64, []int, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	descr := nr.Header.Descr
	shape := descr.Shape

	var values []float64
	switch descr.Type {
	case "<f8":
		err = nr.Read(&values)
	case "<f4":
		var raw []float32
		if err = nr.Read(&raw); err == nil {
			values = widen(raw)
		}
	case "<i8":
		var raw []int64
		if err = nr.Read(&raw); err == nil {
			values = widen(raw)
		}
	case "<i4":
		var raw []int32
		if err = nr.Read(&raw); err == nil {
			values = widen(raw)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedDType, descr.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	if descr.Fortran && len(shape) == 2 {
		values = toRowMajor(values, shape[0], shape[1])
	}
	return values, shape, nil
}

func widen[T float32 | int64 | int32](raw []T) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out
}

func toRowMajor(values []float64, rows, cols int) []float64 {
	out := make([]float64, len(values))
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			out[r*cols+c] = values[c*rows+r]
		}
	}
	return out
}

func encodeArchive(w io.Writer, ds *Dataset, method uint16) error {
	zw := zip.NewWriter(w)

	xw, err := zw.CreateHeader(&zip.FileHeader{Name: observationsEntry, Method: method})
	if err != nil {
		return err
	}
	if err := npyio.Write(xw, ds.X); err != nil {
		return fmt.Errorf("dataset: write X: %w", err)
	}

	if ds.Y != nil {
		yw, err := zw.CreateHeader(&zip.FileHeader{Name: labelsEntry, Method: method})
		if err != nil {
			return err
		}
		if err := npyio.Write(yw, ds.Y); err != nil {
			return fmt.Errorf("dataset: write Y: %w", err)
		}
	}

	return zw.Close()
}
