// Package createdat reads capture and modification timestamps of media files.
//
// OpenImage exposes the raw EXIF DateTimeOriginal of an image,
// ModificationDate reads filesystem content-modification dates, and
// Determine combines metadata, filename and mtime into a best guess.
package createdat
