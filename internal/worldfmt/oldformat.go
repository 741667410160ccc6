package worldfmt

import "bytes"

// idsTag and dataTag are the exact byte sequences (NBT tag type + name
// length + name + payload length) that precede the "Blocks" and "Data"
// byte arrays in an old-style flat chunk file.
var idsTag = []byte{7, 0, 6, 'B', 'l', 'o', 'c', 'k', 's', 0, 0, 128, 0}
var dataTag = []byte{7, 0, 4, 'D', 'a', 't', 'a', 0, 0, 64, 0}

// LoadFromOldFile fills in cd from the raw bytes of a decompressed
// old-style (pre-Anvil) chunk file. Rather than parse the full NBT
// structure, it scans for the two fixed byte-array tags it cares about.
func (cd *ChunkData) LoadFromOldFile(filebuf []byte) bool {
	cd.Anvil = false
	foundIDs, foundData := false, false
	for i := 0; i < len(filebuf); i++ {
		if filebuf[i] != 7 {
			continue
		}
		if !foundIDs && i+13+32768 <= len(filebuf) && bytes.Equal(filebuf[i:i+13], idsTag) {
			copy(cd.BlockIDs[:], filebuf[i+13:i+13+32768])
			i += 13 + 32768 - 1
			foundIDs = true
		} else if !foundData && i+11+16384 <= len(filebuf) && bytes.Equal(filebuf[i:i+11], dataTag) {
			copy(cd.BlockData[:16384], filebuf[i+11:i+11+16384])
			i += 11 + 16384 - 1
			foundData = true
		}
		if foundIDs && foundData {
			return true
		}
	}
	return false
}
