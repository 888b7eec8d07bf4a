// internal/audit/indexer.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"loan-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// Document is the searchable shape of a decided submission.
type Document struct {
	SubmissionID string            `json:"submissionId"`
	Identity     string            `json:"identity"`
	DecidedAt    time.Time         `json:"decidedAt"`
	Decision     models.Decision   `json:"decision"`
	ReasonCode   models.ReasonCode `json:"reasonCode"`
	LoanAmount   float64           `json:"loanAmount"`
	CreditScore  int               `json:"creditScore"`
	AnnualIncome float64           `json:"annualIncome"`
	LoanToIncome *float64          `json:"loanToIncome,omitempty"`
	Conditions   []string          `json:"conditions,omitempty"`
}

// Mapping is the index mapping for Document.
var Mapping = []byte(`{
  "mappings": {
    "properties": {
      "submissionId": {"type": "keyword"},
      "identity":     {"type": "keyword"},
      "decidedAt":    {"type": "date"},
      "decision":     {"type": "keyword"},
      "reasonCode":   {"type": "keyword"},
      "loanAmount":   {"type": "double"},
      "creditScore":  {"type": "integer"},
      "annualIncome": {"type": "double"},
      "loanToIncome": {"type": "double"},
      "conditions":   {"type": "keyword"}
    }
  }
}`)

// Indexer mirrors submission records into an Elasticsearch index. The
// document id is the record id, so re-indexing a replayed persist
// overwrites the same document.
type Indexer struct {
	client *elasticsearch.Client
	index  string
}

func NewIndexer(client *elasticsearch.Client, index string) *Indexer {
	return &Indexer{client: client, index: index}
}

// NewDocument flattens a record for indexing.
func NewDocument(rec *models.SubmissionRecord) Document {
	doc := Document{
		SubmissionID: rec.ID,
		Identity:     rec.Identity,
		DecidedAt:    rec.DecidedAt,
		Decision:     rec.Verdict.Decision,
		ReasonCode:   rec.Verdict.ReasonCode,
		LoanAmount:   rec.Request.LoanAmount,
		CreditScore:  rec.Request.CreditScore,
		AnnualIncome: rec.Request.AnnualIncome,
		LoanToIncome: rec.Verdict.LoanToIncome,
	}
	for _, c := range rec.Verdict.Conditions {
		doc.Conditions = append(doc.Conditions, string(c.Code))
	}
	return doc
}

func (i *Indexer) IndexSubmission(ctx context.Context, rec *models.SubmissionRecord) error {
	body, err := json.Marshal(NewDocument(rec))
	if err != nil {
		return fmt.Errorf("encode audit document: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithDocumentID(rec.ID),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index audit document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("index audit document: %s: %s", res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}
