package swift

import (
	"github.com/swiftreflect/swiftreflect/internal/reader"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// newReader adapts an Image into the internal Byte Reader the walker and
// resolver are built on.
func newReader(img types.Image) *reader.Reader {
	return reader.New(img.Bytes(), img.Segments(), img.ByteOrder())
}
