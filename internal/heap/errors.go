package heap

import "errors"

var (
	// ErrRowTooLarge is returned by Insert when a row could never fit on
	// any page, even an empty one.
	ErrRowTooLarge = errors.New("row does not fit within a page")
	// ErrRowNotFound is returned when a RowID does not address a live tuple.
	ErrRowNotFound = errors.New("row not found")
	// ErrRowDoesNotFit is returned by Update when the new encoding cannot
	// fit in the free space available on the row's existing page.
	ErrRowDoesNotFit = errors.New("updated row does not fit on its page")
)
