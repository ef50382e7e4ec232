package vpk

import "errors"

// ErrFormat is wrapped by every decode failure caused by malformed input.
var ErrFormat = errors.New("invalid VPK format")

var (
	ErrInvalidSignature   = errors.New("invalid VPK signature")
	ErrUnsupportedVersion = errors.New("unsupported VPK version")
	ErrCorruptEntry       = errors.New("corrupt directory entry")
)

var (
	// ErrIntegrity is returned when an assembled file does not match the
	// checksum stored in its entry.
	ErrIntegrity = errors.New("checksum mismatch")

	// ErrUnsupportedOperation is returned when asked to write anything other
	// than a version 1 archive.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrInvalidDirectoryPath is returned when a segment file is needed but the
	// directory file does not follow the *_dir.vpk naming convention.
	ErrInvalidDirectoryPath = errors.New("directory file path does not end in " + DirSuffix)

	ErrUnrepresentablePath = errors.New("path cannot be stored in a VPK tree")
	ErrTooLarge            = errors.New("value exceeds VPK field size")
)
