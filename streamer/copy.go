package streamer

// copyBlockGeneric is the byte-accurate fallback copy used on platforms
// without an AVX2 kernel, and whenever the AVX2 path's length precondition
// (a whole multiple of avx2BlockSize) isn't met.
func copyBlockGeneric(dst, src []byte) {
	copy(dst, src)
}
