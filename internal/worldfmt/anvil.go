package worldfmt

import (
	"encoding/binary"
	"fmt"
)

// Minimal NBT tag type ids; only enough of the format is understood to
// skip past tags we don't care about and locate the ones we do.
const (
	tagEnd       = 0
	tagByte      = 1
	tagShort     = 2
	tagInt       = 3
	tagLong      = 4
	tagFloat     = 5
	tagDouble    = 6
	tagByteArray = 7
	tagString    = 8
	tagList      = 9
	tagCompound  = 10
	tagIntArray  = 11
)

// nbtReader walks an NBT byte buffer with an explicit cursor, since Go
// slices don't give us C's raw-pointer arithmetic.
type nbtReader struct {
	buf []byte
	pos int
}

func (r *nbtReader) parseTypeAndName() (typ uint8, name string, err error) {
	if r.pos >= len(r.buf) {
		return 0, "", fmt.Errorf("worldfmt: truncated NBT tag header")
	}
	typ = r.buf[r.pos]
	r.pos++
	if typ == tagEnd {
		return typ, "", nil
	}
	if r.pos+2 > len(r.buf) {
		return 0, "", fmt.Errorf("worldfmt: truncated NBT tag name length")
	}
	length := int(binary.BigEndian.Uint16(r.buf[r.pos:]))
	r.pos += 2
	if r.pos+length > len(r.buf) {
		return 0, "", fmt.Errorf("worldfmt: truncated NBT tag name")
	}
	name = string(r.buf[r.pos : r.pos+length])
	r.pos += length
	return typ, name, nil
}

// chunkSection collects pointers (as byte-slice subranges) into the
// payload of one 16x16x16 "Sections" compound, filled in as its child
// tags are parsed, then copied into a ChunkData once complete.
type chunkSection struct {
	y                         int // -1 until found
	blockIDs, blockData, add  []byte
}

func (s *chunkSection) complete() bool {
	return s.y >= 0 && s.y < 16 && s.blockIDs != nil && s.blockData != nil
}

func (s *chunkSection) extract(cd *ChunkData) {
	copy(cd.BlockIDs[s.y*4096:], s.blockIDs[:4096])
	copy(cd.BlockData[s.y*2048:], s.blockData[:2048])
	if s.add != nil {
		copy(cd.BlockAdd[s.y*2048:], s.add[:2048])
	}
}

// isSection reports whether the current name stack identifies the
// immediate parent of a tag as one of the compounds in the root
// Level.Sections list.
func isSection(names []string) bool {
	return len(names) == 4 && names[3] == "" && names[2] == "Sections" &&
		names[1] == "Level" && names[0] == ""
}

// parsePayload consumes the payload of a tag of the given type, recursing
// into lists and compounds. When section is non-nil, the immediate parent
// of this tag is a Sections-list compound, so byte-array and byte payloads
// of interest are recorded into it. Completed sections are appended to
// *completed as they close.
func (r *nbtReader) parsePayload(typ uint8, names []string, section *chunkSection, completed *[]*chunkSection) error {
	switch typ {
	case tagEnd:
		return nil
	case tagByte:
		if r.pos >= len(r.buf) {
			return fmt.Errorf("worldfmt: truncated NBT byte")
		}
		if section != nil && names[len(names)-1] == "Y" {
			section.y = int(r.buf[r.pos])
		}
		r.pos++
		return nil
	case tagShort:
		r.pos += 2
	case tagInt, tagFloat:
		r.pos += 4
	case tagLong, tagDouble:
		r.pos += 8
	case tagByteArray:
		if r.pos+4 > len(r.buf) {
			return fmt.Errorf("worldfmt: truncated NBT byte array length")
		}
		length := int(binary.BigEndian.Uint32(r.buf[r.pos:]))
		r.pos += 4
		if r.pos+length > len(r.buf) {
			return fmt.Errorf("worldfmt: truncated NBT byte array")
		}
		if section != nil {
			name := names[len(names)-1]
			switch {
			case name == "Blocks" && length == 4096:
				section.blockIDs = r.buf[r.pos : r.pos+length]
			case name == "Data" && length == 2048:
				section.blockData = r.buf[r.pos : r.pos+length]
			case name == "Add" && length == 2048:
				section.add = r.buf[r.pos : r.pos+length]
			}
		}
		r.pos += length
	case tagIntArray:
		if r.pos+4 > len(r.buf) {
			return fmt.Errorf("worldfmt: truncated NBT int array length")
		}
		length := int(binary.BigEndian.Uint32(r.buf[r.pos:]))
		r.pos += 4 + length*4
	case tagString:
		if r.pos+2 > len(r.buf) {
			return fmt.Errorf("worldfmt: truncated NBT string length")
		}
		length := int(binary.BigEndian.Uint16(r.buf[r.pos:]))
		r.pos += 2 + length
	case tagList:
		if r.pos+5 > len(r.buf) {
			return fmt.Errorf("worldfmt: truncated NBT list header")
		}
		listType := r.buf[r.pos]
		r.pos++
		length := int(binary.BigEndian.Uint32(r.buf[r.pos:]))
		r.pos += 4
		names = append(names, "")
		for i := 0; i < length; i++ {
			if err := r.parsePayload(listType, names, nil, completed); err != nil {
				return err
			}
		}
	case tagCompound:
		var sec chunkSection
		sec.y = -1
		var secPtr *chunkSection
		if isSection(names) {
			secPtr = &sec
		}
		for {
			nextType, nextName, err := r.parseTypeAndName()
			if err != nil {
				return err
			}
			if nextType == tagEnd {
				break
			}
			if err := r.parsePayload(nextType, append(names, nextName), secPtr, completed); err != nil {
				return err
			}
		}
		if secPtr != nil {
			if !sec.complete() {
				return fmt.Errorf("worldfmt: incomplete chunk section")
			}
			*completed = append(*completed, &sec)
		}
	default:
		return fmt.Errorf("worldfmt: unknown NBT tag type %d", typ)
	}
	return nil
}

// LoadFromAnvilFile fills in cd from the raw bytes of a decompressed
// Anvil (sectioned) chunk file, walking its NBT structure just deeply
// enough to find the Level.Sections list and extract each section's
// block id/data/add arrays.
func (cd *ChunkData) LoadFromAnvilFile(filebuf []byte) bool {
	cd.Anvil = true
	for i := range cd.BlockIDs {
		cd.BlockIDs[i] = 0
	}
	for i := range cd.BlockAdd {
		cd.BlockAdd[i] = 0
	}
	for i := range cd.BlockData {
		cd.BlockData[i] = 0
	}

	r := &nbtReader{buf: filebuf}
	typ, name, err := r.parseTypeAndName()
	if err != nil || typ != tagCompound || name != "" {
		return false
	}

	var completed []*chunkSection
	if err := r.parsePayload(typ, []string{name}, nil, &completed); err != nil {
		return false
	}

	for _, sec := range completed {
		sec.extract(cd)
	}
	return true
}
