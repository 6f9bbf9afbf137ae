// Package flock provides cross-platform file locking utilities.
//
// The workspace pool registry uses these exclusive, non-blocking locks to
// make claim and release atomic with respect to concurrent sase processes
// operating on the same project.
//
// Usage:
//
//	file, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//	if err := flock.Exclusive(file.Fd()); err != nil {
//	    // Lock not acquired - file is in use
//	}
//	defer flock.Unlock(file.Fd())
package flock
