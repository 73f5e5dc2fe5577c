// Package machoimage is the external collaborator that implements the
// core's swift/types.Image contract against a real Mach-O file: it memory
// maps the input read-only, walks the load commands for LC_SEGMENT_64
// (building the segment list the core's byte Reader translates vmAddrs
// against and a section-name index for FindSection), and optionally
// decodes LC_DYLD_CHAINED_FIXUPS into a minimal ChainedFixups view.
//
// Only 64-bit little-endian images are supported — every Swift reflection
// binary in practice is arm64 or x86_64, and chained fixups (the only
// fixup format this package decodes) did not exist before 64-bit-only
// platforms. 32-bit and big-endian Mach-O are rejected at Open.
package machoimage

import (
	"encoding/binary"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/swiftreflect/swiftreflect/internal/reader"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

const (
	magic64         = 0xfeedfacf
	lcSegment64     = 0x19
	lcReqDyld       = 0x80000000
	lcDyldChainedFixups = 0x34 | lcReqDyld

	fileHeaderSize64 = 32
	segment64Size    = 72
	section64Size    = 80
)

// section indexes one mapped section by its (segment, section) name pair.
type section struct {
	offset uint32
	size   uint32
}

// Image is a read-only, mmap-backed Mach-O file satisfying swift/types.Image.
type Image struct {
	data     []byte
	mm       mmap.MMap // non-nil only when Open backed this Image with a real mmap
	f        *os.File
	order    binary.ByteOrder
	segments []reader.Segment
	sections map[string]section
	fixups   *chainedFixups
}

// Open memory-maps path and parses its Mach-O header, load commands, and
// (if present) chained-fixups payload. The caller must call Close when
// done with the returned Image.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	img := &Image{
		data:     data,
		mm:       data,
		f:        f,
		sections: make(map[string]section),
	}
	if err := img.parse(); err != nil {
		img.Close()
		return nil, err
	}
	return img, nil
}

// newFromBytes builds an Image directly over an in-memory buffer, with no
// backing file or mmap. Used by tests to exercise the parser against
// hand-built Mach-O byte layouts without touching the filesystem.
func newFromBytes(data []byte) (*Image, error) {
	img := &Image{
		data:     data,
		sections: make(map[string]section),
	}
	if err := img.parse(); err != nil {
		return nil, err
	}
	return img, nil
}

// Close unmaps the backing file and releases the file handle. A no-op for
// an Image built over a plain in-memory buffer.
func (img *Image) Close() error {
	var err error
	if img.mm != nil {
		err = img.mm.Unmap()
	}
	if img.f != nil {
		if cerr := img.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (img *Image) Bytes() []byte                   { return img.data }
func (img *Image) ByteOrder() binary.ByteOrder      { return img.order }
func (img *Image) Segments() []reader.Segment       { return img.segments }

func (img *Image) FindSection(segment, sectionName string) (offset, size uint32, ok bool) {
	s, ok := img.sections[sectionKey(segment, sectionName)]
	if !ok {
		return 0, 0, false
	}
	return s.offset, s.size, true
}

func (img *Image) ChainedFixups() types.ChainedFixups {
	if img.fixups == nil {
		return nil
	}
	return img.fixups
}

func sectionKey(segment, section string) string { return segment + "/" + section }

// parse walks the file header and load commands, handling LC_SEGMENT_64
// and LC_DYLD_CHAINED_FIXUPS. Any other load command is skipped over using
// its own declared size, the same tolerant-skip convention the Descriptor
// Walker uses for reflection records.
func (img *Image) parse() error {
	buf := []byte(img.data)
	if len(buf) < fileHeaderSize64 {
		return fmt.Errorf("machoimage: file too small for a Mach-O header")
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != magic64 {
		return fmt.Errorf("machoimage: unsupported magic %#08x (only 64-bit little-endian Mach-O is supported)", magic)
	}
	img.order = binary.LittleEndian

	ncmds := img.order.Uint32(buf[16:20])
	sizeCmds := img.order.Uint32(buf[20:24])
	if int64(fileHeaderSize64)+int64(sizeCmds) > int64(len(buf)) {
		return fmt.Errorf("machoimage: load commands overrun the file")
	}

	off := int64(fileHeaderSize64)
	end := off + int64(sizeCmds)
	var fixupsOff, fixupsSize uint32

	for i := uint32(0); i < ncmds && off+8 <= end; i++ {
		cmd := img.order.Uint32(buf[off : off+4])
		cmdsize := img.order.Uint32(buf[off+4 : off+8])
		if cmdsize < 8 || off+int64(cmdsize) > int64(len(buf)) {
			return fmt.Errorf("machoimage: malformed load command at offset %d", off)
		}

		switch cmd {
		case lcSegment64:
			if err := img.parseSegment64(buf, off, cmdsize); err != nil {
				return err
			}
		case lcDyldChainedFixups:
			fixupsOff = img.order.Uint32(buf[off+8 : off+12])
			fixupsSize = img.order.Uint32(buf[off+12 : off+16])
		}

		off += int64(cmdsize)
	}

	if fixupsSize > 0 && int64(fixupsOff)+int64(fixupsSize) <= int64(len(buf)) {
		var baseAddr uint64
		for _, seg := range img.segments {
			if baseAddr == 0 || seg.VMAddr < baseAddr {
				baseAddr = seg.VMAddr
			}
		}
		fx, err := parseChainedFixups(buf[fixupsOff:fixupsOff+fixupsSize], baseAddr)
		if err == nil {
			img.fixups = fx
		}
	}

	return nil
}

func (img *Image) parseSegment64(buf []byte, off int64, cmdsize uint32) error {
	if off+segment64Size > int64(len(buf)) {
		return fmt.Errorf("machoimage: LC_SEGMENT_64 overruns the file")
	}
	name := cString(buf[off+8 : off+24])
	vmaddr := img.order.Uint64(buf[off+24 : off+32])
	vmsize := img.order.Uint64(buf[off+32 : off+40])
	fileoff := img.order.Uint64(buf[off+40 : off+48])
	filesize := img.order.Uint64(buf[off+48 : off+56])
	nsects := img.order.Uint32(buf[off+64 : off+68])

	img.segments = append(img.segments, reader.Segment{
		VMAddr:   vmaddr,
		VMSize:   vmsize,
		FileOff:  fileoff,
		FileSize: filesize,
	})

	secOff := off + segment64Size
	for s := uint32(0); s < nsects; s++ {
		if secOff+section64Size > int64(len(buf)) {
			return fmt.Errorf("machoimage: section table overruns the file in segment %s", name)
		}
		secName := cString(buf[secOff : secOff+16])
		segName := cString(buf[secOff+16 : secOff+32])
		fileOffset := img.order.Uint32(buf[secOff+48 : secOff+52])
		size := img.order.Uint64(buf[secOff+40 : secOff+48])

		img.sections[sectionKey(segName, secName)] = section{
			offset: fileOffset,
			size:   uint32(size),
		}
		secOff += section64Size
	}
	return nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
