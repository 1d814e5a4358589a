//go:build !unix

package repository

import "os"

// Cross-process locking is unavailable; the in-process mutex still applies.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
