package container

// Assemble splices the shared tables into a raw tile stream immediately after
// its two byte start of image marker. The tables must already have their own
// start and end of image markers removed. The result is a self-contained
// JPEG stream.
func Assemble(tables, tile []byte) []byte {
	if len(tile) < 2 {
		return append([]byte(nil), tile...)
	}
	b := make([]byte, 0, len(tile)+len(tables))
	b = append(b, tile[:2]...)
	b = append(b, tables...)
	return append(b, tile[2:]...)
}
