package internalerr

import "errors"

// Sentinel errors for the document-level and run-level failure classes.
// Everything except ErrInvalidConfig and ErrRecognizer is contained at the
// document or archive boundary.
var (
	ErrArchive       = errors.New("archive unreadable")
	ErrSchema        = errors.New("index schema mismatch")
	ErrParse         = errors.New("index parse failed")
	ErrMissingText   = errors.New("paired text file missing")
	ErrBlacklisted   = errors.New("document blacklisted")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrRecognizer    = errors.New("recognizer unavailable")
	ErrSegmentWrite  = errors.New("segment write failed")
)
