// Package header decodes SAH archive headers into a folder tree.
//
// Layout (all integers little-endian):
//
//	"SAH"            3 bytes  signature
//	reserved         4 bytes
//	entry count      i32      informational only
//	reserved         45 bytes
//	root folder
//
// A folder is an i32 file count, that many file records, an i32 subfolder
// count and that many subfolder records. A file record is a name, a u64
// offset, a u32 length and 4 reserved bytes. A subfolder record is a name
// followed by a full folder. Names are an i32 byte length followed by the
// bytes, padded with trailing NULs.
package header
