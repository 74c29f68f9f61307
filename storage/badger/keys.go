package badger

// Key layout inside a section:
//
//	<section>:<key>  raw float32 vector value
//	<section>!dim    pinned dimension as little-endian uint32
//
// The '!' separator for the meta key sorts before ':' so the dimension row
// never appears inside the vector prefix scan.

func makeVectorKey(section, key string) []byte {
	return []byte(section + ":" + key)
}

func vectorPrefix(section string) []byte {
	return []byte(section + ":")
}

func makeDimensionKey(section string) []byte {
	return []byte(section + "!dim")
}
