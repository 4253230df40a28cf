package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/vsloader/core"
)

// Key prefixes for different data types
const (
	runRecordPrefix   = "runrec"
	runIndexPrefix    = "runidx"
	indexInfoPrefix   = "vsidx"
	documentPrefix    = "vsdoc"
	documentIDSeq     = "vsdocseq"
	keySeparator      = ':'
	indexNameTerminal = 0x00
)

// makeRunKey generates a key for a run by ID.
func makeRunKey(id string) []byte {
	return []byte(runRecordPrefix + ":" + id)
}

// makePartialRunIndexKey generates the prefix shared by all runs of an index.
// Format: prefix:index\x00
func makePartialRunIndexKey(index string) []byte {
	buf := make([]byte, 0, len(runIndexPrefix)+len(index)+2)
	buf = append(buf, runIndexPrefix...)
	buf = append(buf, keySeparator)
	buf = append(buf, index...)
	return append(buf, indexNameTerminal)
}

// makeRunIndexKey generates a composite key ordering an index's runs by start time.
// Format: prefix:index\x00timestamp:id
func makeRunIndexKey(index string, startedAt time.Time, id string) []byte {
	buf := makePartialRunIndexKey(index)
	// Write in BigEndian order so lexicographic sort works correctly
	buf = binary.BigEndian.AppendUint64(buf, uint64(startedAt.UnixMicro()))
	buf = append(buf, keySeparator)
	return append(buf, id...)
}

// makeIndexInfoKey generates a key for index metadata.
func makeIndexInfoKey(index string) []byte {
	return []byte(indexInfoPrefix + ":" + index)
}

// makePartialDocumentKey generates the prefix shared by all documents of an index.
// Format: prefix:index\x00
func makePartialDocumentKey(index string) []byte {
	buf := make([]byte, 0, len(documentPrefix)+len(index)+2)
	buf = append(buf, documentPrefix...)
	buf = append(buf, keySeparator)
	buf = append(buf, index...)
	return append(buf, indexNameTerminal)
}

// makeDocumentKey generates a key for a document.
// Format: prefix:index\x00id
func makeDocumentKey(index string, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(makePartialDocumentKey(index), uint64(id))
}
