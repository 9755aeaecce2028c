package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

func microTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

func timeMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// MUS serializers for the records persisted by the storage layer. Written
// against mus-go primitives directly; field order is the wire format and must
// not change between releases.
var (
	embeddingSer = ord.NewSliceSer[float32](raw.Float32)
	metadataSer  = ord.NewMapSer[string, string](ord.String, ord.String)
)

// VectorEntryMUS serializes VectorEntry values.
var VectorEntryMUS = vectorEntryMUS{}

type vectorEntryMUS struct{}

func (vectorEntryMUS) Marshal(v VectorEntry, bs []byte) (n int) {
	n = ord.String.Marshal(v.ChunkID, bs)
	n += ord.String.Marshal(v.DocumentID, bs[n:])
	n += varint.Int.Marshal(v.Index, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += embeddingSer.Marshal(v.Embedding, bs[n:])
	n += metadataSer.Marshal(v.Metadata, bs[n:])
	return n
}

func (vectorEntryMUS) Unmarshal(bs []byte) (v VectorEntry, n int, err error) {
	var n1 int
	if v.ChunkID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.DocumentID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Index, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Embedding, n1, err = embeddingSer.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Metadata, n1, err = metadataSer.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (vectorEntryMUS) Size(v VectorEntry) (size int) {
	size = ord.String.Size(v.ChunkID)
	size += ord.String.Size(v.DocumentID)
	size += varint.Int.Size(v.Index)
	size += ord.String.Size(v.Text)
	size += embeddingSer.Size(v.Embedding)
	size += metadataSer.Size(v.Metadata)
	return size
}

// DocumentMUS serializes Document values. Timestamps travel as Unix
// microseconds.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.SourceName, bs[n:])
	n += ord.String.Marshal(v.FormatHint, bs[n:])
	n += ord.String.Marshal(v.FileType, bs[n:])
	n += varint.Int64.Marshal(v.SizeBytes, bs[n:])
	n += varint.Int.Marshal(int(v.Stage), bs[n:])
	n += varint.Int.Marshal(int(v.FailedStage), bs[n:])
	n += varint.Int.Marshal(v.ChunkCount, bs[n:])
	n += varint.Int.Marshal(v.TextLength, bs[n:])
	n += ord.String.Marshal(v.Warning, bs[n:])
	n += ord.String.Marshal(v.Error, bs[n:])
	n += varint.Int64.Marshal(timeMicro(v.CreatedAt), bs[n:])
	n += varint.Int64.Marshal(timeMicro(v.UpdatedAt), bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var (
		n1                   int
		stage, failed        int
		createdAt, updatedAt int64
	)
	if v.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.SourceName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.FormatHint, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.FileType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.SizeBytes, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if stage, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.Stage = Stage(stage)
	if failed, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.FailedStage = Stage(failed)
	if v.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.TextLength, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Warning, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Error, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if createdAt, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.CreatedAt = microTime(createdAt)
	if updatedAt, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.UpdatedAt = microTime(updatedAt)
	return
}

func (documentMUS) Size(v Document) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.SourceName)
	size += ord.String.Size(v.FormatHint)
	size += ord.String.Size(v.FileType)
	size += varint.Int64.Size(v.SizeBytes)
	size += varint.Int.Size(int(v.Stage))
	size += varint.Int.Size(int(v.FailedStage))
	size += varint.Int.Size(v.ChunkCount)
	size += varint.Int.Size(v.TextLength)
	size += ord.String.Size(v.Warning)
	size += ord.String.Size(v.Error)
	size += varint.Int64.Size(timeMicro(v.CreatedAt))
	size += varint.Int64.Size(timeMicro(v.UpdatedAt))
	return size
}
