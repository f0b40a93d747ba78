package vector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// artifactMagic identifies the embedding cache artifact format.
var artifactMagic = [4]byte{'T', 'B', 'E', '1'}

// Save persists the matrix to a gzip-compressed artifact at path. The file
// records the row count so loaders can detect a stale artifact when the
// catalog size changes. The write is atomic (temp file + rename).
func Save(path string, m *Matrix) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".embeddings-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeArtifact(tmp, m); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func writeArtifact(f *os.File, m *Matrix) error {
	gz := gzip.NewWriter(f)
	w := bufio.NewWriter(gz)

	if _, err := w.Write(artifactMagic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.Len())); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.dim)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	for i := range m.rows {
		if err := writeString(w, m.names[i]); err != nil {
			return fmt.Errorf("write name: %w", err)
		}
		if err := writeString(w, m.texts[i]); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
		if _, err := w.Write(float32SliceToBytes(m.rows[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}
	return nil
}

// Load reads a matrix from the artifact at path. A missing file returns
// (nil, nil); the caller decides whether the recorded row count still
// matches the live catalog.
func Load(path string) (*Matrix, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()
	r := bufio.NewReader(gz)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != artifactMagic {
		return nil, fmt.Errorf("unrecognized cache format")
	}
	var count, dim uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimension: %w", err)
	}
	if dim == 0 {
		return nil, fmt.Errorf("invalid dimension in cache")
	}

	m := &Matrix{dim: int(dim)}
	buf := make([]byte, dim*4)
	for i := uint32(0); i < count; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read name: %w", err)
		}
		text, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read text: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		m.names = append(m.names, name)
		m.texts = append(m.texts, text)
		m.rows = append(m.rows, bytesToFloat32Slice(buf))
	}
	return m, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func float32SliceToBytes(s []float32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out
}
