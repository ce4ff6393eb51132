package format

type (
	Tag             uint8
	CompressionType uint8
)

// Version is the leading byte of every external term format message.
const Version = 131

const (
	TagNewFloat       Tag = 70  // TagNewFloat is an 8-byte IEEE-754 float, big-endian.
	TagAtomCacheRef   Tag = 82  // TagAtomCacheRef is a 1-byte index into the distribution atom cache.
	TagNewerReference Tag = 90  // TagNewerReference is a reference with a 4-byte creation.
	TagSmallInteger   Tag = 97  // TagSmallInteger is a 1-byte unsigned integer.
	TagInteger        Tag = 98  // TagInteger is a 4-byte signed integer, big-endian.
	TagAtom           Tag = 100 // TagAtom is an atom with a 2-byte length.
	TagReference      Tag = 101 // TagReference is an old-style reference with a single id word.
	TagSmallTuple     Tag = 104 // TagSmallTuple is a tuple with a 1-byte arity.
	TagLargeTuple     Tag = 105 // TagLargeTuple is a tuple with a 4-byte arity.
	TagNil            Tag = 106 // TagNil is the empty list.
	TagString         Tag = 107 // TagString is a byte list with a 2-byte length.
	TagList           Tag = 108 // TagList is a list with a 4-byte length and a tail.
	TagBinary         Tag = 109 // TagBinary is a binary with a 4-byte length.
	TagSmallBig       Tag = 110 // TagSmallBig is a bignum with a 1-byte digit count.
	TagLargeBig       Tag = 111 // TagLargeBig is a bignum with a 4-byte digit count.
	TagNewReference   Tag = 114 // TagNewReference is a reference with a variable id word count.
	TagSmallAtom      Tag = 115 // TagSmallAtom is an atom with a 1-byte length.
	TagAtomUTF8       Tag = 118 // TagAtomUTF8 is a UTF-8 atom with a 2-byte length.
	TagSmallAtomUTF8  Tag = 119 // TagSmallAtomUTF8 is a UTF-8 atom with a 1-byte length.
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// IsAtom reports whether t carries an atom name.
func (t Tag) IsAtom() bool {
	return t == TagAtom || t == TagSmallAtom || t == TagAtomUTF8 || t == TagSmallAtomUTF8
}

// IsReference reports whether t is one of the reference encodings.
func (t Tag) IsReference() bool {
	return t == TagReference || t == TagNewReference || t == TagNewerReference
}

func (t Tag) String() string {
	switch t {
	case TagNewFloat:
		return "NEW_FLOAT_EXT"
	case TagAtomCacheRef:
		return "ATOM_CACHE_REF"
	case TagNewerReference:
		return "NEWER_REFERENCE_EXT"
	case TagSmallInteger:
		return "SMALL_INTEGER_EXT"
	case TagInteger:
		return "INTEGER_EXT"
	case TagAtom:
		return "ATOM_EXT"
	case TagReference:
		return "REFERENCE_EXT"
	case TagSmallTuple:
		return "SMALL_TUPLE_EXT"
	case TagLargeTuple:
		return "LARGE_TUPLE_EXT"
	case TagNil:
		return "NIL_EXT"
	case TagString:
		return "STRING_EXT"
	case TagList:
		return "LIST_EXT"
	case TagBinary:
		return "BINARY_EXT"
	case TagSmallBig:
		return "SMALL_BIG_EXT"
	case TagLargeBig:
		return "LARGE_BIG_EXT"
	case TagNewReference:
		return "NEW_REFERENCE_EXT"
	case TagSmallAtom:
		return "SMALL_ATOM_EXT"
	case TagAtomUTF8:
		return "ATOM_UTF8_EXT"
	case TagSmallAtomUTF8:
		return "SMALL_ATOM_UTF8_EXT"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps a configuration name to a CompressionType.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch name {
	case "", "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}
