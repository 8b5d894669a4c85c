package msf

import "encoding/binary"

// buildContainer lays out streams in a minimal MSF container with the
// given block size. Block 0 holds the superblock, blocks 1 and 2 the free block maps,
// block 3 the directory block map; the directory and stream data follow.
func buildContainer(blockSize uint32, streams [][]byte) []byte {
	bs := int(blockSize)
	blocksFor := func(n int) int { return (n + bs - 1) / bs }

	dirSize := 4 + 4*len(streams)
	for _, s := range streams {
		dirSize += 4 * blocksFor(len(s))
	}
	numDirBlocks := blocksFor(dirSize)

	next := uint32(4 + numDirBlocks)
	dir := binary.LittleEndian.AppendUint32(nil, uint32(len(streams)))
	for _, s := range streams {
		dir = binary.LittleEndian.AppendUint32(dir, uint32(len(s)))
	}
	var starts []uint32
	for _, s := range streams {
		starts = append(starts, next)
		for range blocksFor(len(s)) {
			dir = binary.LittleEndian.AppendUint32(dir, next)
			next++
		}
	}

	out := make([]byte, int(next)*bs)
	copy(out, Magic)
	binary.LittleEndian.PutUint32(out[32:], blockSize)
	binary.LittleEndian.PutUint32(out[36:], 1)
	binary.LittleEndian.PutUint32(out[40:], next)
	binary.LittleEndian.PutUint32(out[44:], uint32(len(dir)))
	binary.LittleEndian.PutUint32(out[52:], 3)

	for i := range numDirBlocks {
		binary.LittleEndian.PutUint32(out[3*bs+4*i:], uint32(4+i))
	}
	copy(out[4*bs:], dir)
	for i, s := range streams {
		copy(out[int(starts[i])*bs:], s)
	}
	return out
}
