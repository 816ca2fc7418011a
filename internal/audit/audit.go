package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/authgate/pkg/logging"
)

type Entry struct {
	Event  string    `json:"event"`
	UserID uint      `json:"user_id,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Errors []string  `json:"errors,omitempty"`
	At     time.Time `json:"at"`
}

// Recorder indexes one audit document per auth decision. It is
// fire-and-forget: indexing failures are logged and never surfaced to the
// auth operation that produced them.
type Recorder struct {
	client *elasticsearch.Client
	index  string
}

func NewRecorder(url, user, password, index string) (*Recorder, error) {
	if url == "" {
		return &Recorder{}, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}

	return &Recorder{client: client, index: index}, nil
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.client == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	l := logging.FromContext(ctx)
	data, err := json.Marshal(e)
	if err != nil {
		l.Warn("audit marshal failed", "event", e.Event, "error", err)
		return
	}

	res, err := r.client.Index(r.index, bytes.NewReader(data), r.client.Index.WithContext(ctx))
	if err != nil {
		l.Warn("audit index failed", "event", e.Event, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		l.Warn("audit index rejected", "event", e.Event, "status", res.Status())
	}
}
