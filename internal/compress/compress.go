package compress

import "fmt"

// Compress encodes stored payloads, the codec name is kept next to the data.
type Compress interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
	Name() string
}

// New returns the codec registered under name, an empty name is Nop.
func New(name string) (Compress, error) {
	switch name {
	case "", "nop", "none":
		return NewNop(), nil
	case "gzip":
		return NewGZip(), nil
	case "brotli":
		return NewBrotli(), nil
	case "lz4":
		return NewLZ4(), nil
	}

	return nil, fmt.Errorf("unknown compression: %s", name)
}
