// Package npz stores named numeric arrays in a ZIP-compatible archive and
// reads them back byte-exact.
//
// Each array is one archive entry named "<name>.npy" whose payload is the
// serialized array produced by an external array codec. Payloads are stored
// verbatim or compressed with raw DEFLATE (method 8) or Zstandard
// (method 93). Every payload carries the IEEE CRC-32 and the length of its
// uncompressed bytes, and readers verify both.
//
// # Writing
//
// [Append] adds one entry to an archive, creating the file if needed. Prior
// entries are never moved or rewritten: the new entry is written where the
// old central directory began, followed by the old directory bytes, one new
// directory record and a fresh end record.
//
//	err := npz.Append("weights.npz", "layer0", payload,
//	    npz.AppendWithCompression(npz.MethodDeflate),
//	)
//
// # Reading
//
// [Load] and [LoadEntry] scan an archive sequentially from its first entry
// header and need only an [io.Reader]:
//
//	arrays, err := npz.LoadFile("weights.npz")
//	layer0, err := npz.LoadFileEntry("weights.npz", "layer0")
//
// [Open] builds an index of every entry without decompressing anything and
// serves random-access reads through [io.ReaderAt]:
//
//	a, err := npz.Open("weights.npz")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	for e := range a.Entries() {
//	    fmt.Println(e.Name, e.UncompressedSize)
//	}
//	all, err := a.ReadAll(ctx)
//
// Standalone compressed streams of one array are handled by the codec
// subpackage.
//
// Multi-disk archives, encryption, archive comments and ZIP64 are not
// supported and are reported as [ErrUnsupported].
package npz
