//go:build amd64

package streamer

// #cgo CFLAGS: -mavx2
// #include <immintrin.h>
// #include <stdint.h>
//
// static void qua_avx2_stream_copy(void *dst, const void *src, size_t n) {
//     uint8_t *d = (uint8_t *)__builtin_assume_aligned(dst, 4096);
//     const uint8_t *s = (const uint8_t *)__builtin_assume_aligned(src, 4096);
//     size_t iterations = n / 512;
//     for (size_t i = 0; i < iterations; i++) {
//         __m256i y0 = _mm256_stream_load_si256((const __m256i *)(s + 0));
//         __m256i y1 = _mm256_stream_load_si256((const __m256i *)(s + 32));
//         __m256i y2 = _mm256_stream_load_si256((const __m256i *)(s + 64));
//         __m256i y3 = _mm256_stream_load_si256((const __m256i *)(s + 96));
//         __m256i y4 = _mm256_stream_load_si256((const __m256i *)(s + 128));
//         __m256i y5 = _mm256_stream_load_si256((const __m256i *)(s + 160));
//         __m256i y6 = _mm256_stream_load_si256((const __m256i *)(s + 192));
//         __m256i y7 = _mm256_stream_load_si256((const __m256i *)(s + 224));
//         __m256i y8 = _mm256_stream_load_si256((const __m256i *)(s + 256));
//         __m256i y9 = _mm256_stream_load_si256((const __m256i *)(s + 288));
//         __m256i y10 = _mm256_stream_load_si256((const __m256i *)(s + 320));
//         __m256i y11 = _mm256_stream_load_si256((const __m256i *)(s + 352));
//         __m256i y12 = _mm256_stream_load_si256((const __m256i *)(s + 384));
//         __m256i y13 = _mm256_stream_load_si256((const __m256i *)(s + 416));
//         __m256i y14 = _mm256_stream_load_si256((const __m256i *)(s + 448));
//         __m256i y15 = _mm256_stream_load_si256((const __m256i *)(s + 480));
//         _mm256_stream_si256((__m256i *)(d + 0), y0);
//         _mm256_stream_si256((__m256i *)(d + 32), y1);
//         _mm256_stream_si256((__m256i *)(d + 64), y2);
//         _mm256_stream_si256((__m256i *)(d + 96), y3);
//         _mm256_stream_si256((__m256i *)(d + 128), y4);
//         _mm256_stream_si256((__m256i *)(d + 160), y5);
//         _mm256_stream_si256((__m256i *)(d + 192), y6);
//         _mm256_stream_si256((__m256i *)(d + 224), y7);
//         _mm256_stream_si256((__m256i *)(d + 256), y8);
//         _mm256_stream_si256((__m256i *)(d + 288), y9);
//         _mm256_stream_si256((__m256i *)(d + 320), y10);
//         _mm256_stream_si256((__m256i *)(d + 352), y11);
//         _mm256_stream_si256((__m256i *)(d + 384), y12);
//         _mm256_stream_si256((__m256i *)(d + 416), y13);
//         _mm256_stream_si256((__m256i *)(d + 448), y14);
//         _mm256_stream_si256((__m256i *)(d + 480), y15);
//         s += 512;
//         d += 512;
//     }
// }
import "C"

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// avx2BlockSize is the unit the AVX2 kernel processes per inner iteration;
// blockCopy callers must pass lengths that are whole multiples of it.
const avx2BlockSize = 512

// hasAVX2 is resolved once at process start; copyBlock checks it on every
// call since the fallback must still be correct on non-AVX2 hardware.
var hasAVX2 = cpu.X86.HasAVX2

// copyBlock copies n bytes (a whole multiple of 512) from a 4 KiB-aligned
// src to a 4 KiB-aligned dst using non-temporal AVX2 loads/stores when
// available, falling back to a plain copy otherwise. No store fence is
// issued here — callers batch the fence once per two-period commit per the
// streamer's ordering contract.
func copyBlock(dst, src []byte) {
	n := len(src)
	if !hasAVX2 || n%avx2BlockSize != 0 || n == 0 {
		copyBlockGeneric(dst, src)

		return
	}

	C.qua_avx2_stream_copy(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), C.size_t(n)) //nolint:gosec // n is always positive here.
}

// storeFence issues a single SFENCE, ordering every non-temporal store
// issued so far before whatever comes after it — the streamer calls this
// exactly once, before the initial two-period commit.
func storeFence() {
	if hasAVX2 {
		C._mm_sfence()
	}
}
