package badger

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/crewlens/crewlens/vectorstore"
)

var vectorSer = ord.NewSliceSer[float32](raw.Float32)

// marshalDocument serializes a Document to bytes.
func marshalDocument(doc *vectorstore.Document) []byte {
	size := ord.String.Size(doc.Text) +
		ord.String.Size(doc.Person) +
		ord.String.Size(doc.Project) +
		ord.String.Size(doc.DateLabel) +
		varint.Int.Size(doc.RowIndex) +
		vectorSer.Size(doc.Vector)

	buf := make([]byte, size)
	n := ord.String.Marshal(doc.Text, buf)
	n += ord.String.Marshal(doc.Person, buf[n:])
	n += ord.String.Marshal(doc.Project, buf[n:])
	n += ord.String.Marshal(doc.DateLabel, buf[n:])
	n += varint.Int.Marshal(doc.RowIndex, buf[n:])
	vectorSer.Marshal(doc.Vector, buf[n:])
	return buf
}

// unmarshalDocument deserializes a Document from bytes.
func unmarshalDocument(data []byte) (*vectorstore.Document, error) {
	var (
		doc vectorstore.Document
		n   int
		err error
	)

	doc.Text, n, err = ord.String.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	data = data[n:]

	doc.Person, n, err = ord.String.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	data = data[n:]

	doc.Project, n, err = ord.String.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	data = data[n:]

	doc.DateLabel, n, err = ord.String.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	data = data[n:]

	doc.RowIndex, n, err = varint.Int.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	data = data[n:]

	doc.Vector, _, err = vectorSer.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
