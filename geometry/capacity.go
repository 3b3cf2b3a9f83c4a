package geometry

// Capacity returns the memory size the mapping can address, in bytes. It
// relies on the mapping rules the controller enforces: distinct HIF bits per
// coordinate bit and no mapping for absent coordinate bits. Ranks are not
// part of it.
func Capacity(m MappingTable, w DQWidth) uint64 {
	return 1 << (m.MappedBits() + int(w))
}
