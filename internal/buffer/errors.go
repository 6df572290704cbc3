package buffer

import "errors"

var (
	// ErrPoolFull is returned when every frame is pinned and the replacer
	// has nothing left to evict.
	ErrPoolFull = errors.New("buffer pool exhausted: no frame available")
	// ErrPagePinned is returned by DeletePage when the page is still pinned.
	ErrPagePinned = errors.New("page is pinned")
)
