package document

import (
	"time"

	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// storedDoc is the JSON _source written to the backend.
type storedDoc struct {
	Tenant    string `json:"tenant"`
	DocID     string `json:"docId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func toStored(doc *domdoc.Document) storedDoc {
	return storedDoc{
		Tenant:    doc.Tenant().String(),
		DocID:     doc.ID(),
		Title:     doc.Title(),
		Content:   doc.Content(),
		CreatedAt: doc.CreatedAt().Format(time.RFC3339Nano),
	}
}

// fromStored rebuilds a Document. An unparseable createdAt yields the zero time.
func fromStored(s storedDoc) domdoc.Document {
	createdAt, err := time.Parse(time.RFC3339Nano, s.CreatedAt)
	if err != nil {
		createdAt = time.Time{}
	}
	return domdoc.Reconstruct(tenant.ID(s.Tenant), s.DocID, s.Title, s.Content, createdAt)
}
