package page

import (
	"encoding/binary"
	"hash/crc32"

	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

const (
	HEADER_SIZE = 16 // Size of PageHeader struct: PageID(8) + Checksum(4) + Flags(2) + padding(2)
)

const (
	flagDirty  uint16 = 1 << 0
	flagPinned uint16 = 1 << 1
)

// Page is block that read/write from disk
type Page struct {
	Header PageHeader
	Data   [util.PageSize - HEADER_SIZE]byte
}

type PageHeader struct {
	PageID   util.PageID // 8 bytes
	Checksum uint32      // 4 bytes
	Flags    uint16      // 2 bytes
	_        uint16      //2 bytes (padding)
}

func (h *PageHeader) SetDirtyFlag()   { h.Flags |= flagDirty }
func (h *PageHeader) ClearDirtyFlag() error {
	h.Flags &^= flagDirty
	return nil
}
func (h *PageHeader) IsDirty() bool { return h.Flags&flagDirty != 0 }

func (h *PageHeader) SetPinnedFlag() { h.Flags |= flagPinned }
func (h *PageHeader) ClearPinnedFlag() error {
	h.Flags &^= flagPinned
	return nil
}
func (h *PageHeader) IsPinned() bool { return h.Flags&flagPinned != 0 }

// Serialize packs the page into a byte slice for writing. The checksum
// covers the data payload only, not the header fields.
func (p *Page) Serialize() []byte {
	buf := make([]byte, util.PageSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(p.Header.PageID))
	binary.LittleEndian.PutUint16(buf[12:14], p.Header.Flags)
	copy(buf[HEADER_SIZE:], p.Data[:])

	checksum := crc32.ChecksumIEEE(buf[HEADER_SIZE:])
	p.Header.Checksum = checksum
	binary.LittleEndian.PutUint32(buf[8:12], checksum)

	return buf
}

// Deserialize unpacks from bytes, validates checksum
func Deserialize(data []byte) (*Page, error) {
	if len(data) != util.PageSize {
		return nil, util.ErrInvalidPageSize
	}

	p := &Page{}
	p.Header.PageID = util.PageID(binary.LittleEndian.Uint64(data[0:8]))
	p.Header.Checksum = binary.LittleEndian.Uint32(data[8:12])
	p.Header.Flags = binary.LittleEndian.Uint16(data[12:14])
	copy(p.Data[:], data[HEADER_SIZE:])

	if crc32.ChecksumIEEE(data[HEADER_SIZE:]) != p.Header.Checksum {
		return nil, util.ErrChecksumMismatch
	}

	return p, nil
}
