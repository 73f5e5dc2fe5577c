package main

import (
	"fmt"

	"github.com/swiftreflect/swiftreflect/pkg/machoimage"
	"github.com/swiftreflect/swiftreflect/pkg/swift"
)

// loadInventory opens path as a Mach-O image and walks its reflection
// sections into an Inventory. The caller must call the returned closer
// once done with the image's backing mmap.
func loadInventory(path string) (*swift.Inventory, func() error, error) {
	img, err := machoimage.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return swift.Build(img), img.Close, nil
}
