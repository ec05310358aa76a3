//go:build linux && (mips || mipsle || mips64 || mips64le || ppc || ppc64 || ppc64le || sparc64)

package linux

// ioctl encoding for mips, powerpc and sparc.
//
//	bits 0-7:   command number (nr)
//	bits 8-15:  ioctl type (type)
//	bits 16-28: argument size (size)
//	bits 29-31: direction (dir)

const (
	iocNone  = 1
	iocRead  = 2
	iocWrite = 4
)

const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 13

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)
