package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/pineapple_admin/internal/audit"
)

type Config struct {
	URL      string
	User     string
	Password string
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

// Ping fails when the cluster is unreachable or answers with an error.
func Ping(ctx context.Context, client *elasticsearch.Client) error {
	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return nil
}

// Indexer stores audit events in one index and reads back the latest ones.
type Indexer struct {
	Client *elasticsearch.Client
	Index  string
}

func (i *Indexer) Publish(ctx context.Context, e audit.Event) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(e); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	res, err := i.Client.Index(i.Index, &buf,
		i.Client.Index.WithContext(ctx),
		i.Client.Index.WithDocumentID(e.ID),
	)
	if err != nil {
		return fmt.Errorf("index event: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index event: %s", res.Status())
	}
	return nil
}

func (i *Indexer) Recent(ctx context.Context, size int) ([]audit.Event, error) {
	body := map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"sort":  []any{map[string]any{"at": map[string]any{"order": "desc"}}},
		"size":  size,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := i.Client.Search(
		i.Client.Search.WithContext(ctx),
		i.Client.Search.WithIndex(i.Index),
		i.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search events: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source audit.Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]audit.Event, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		events[n] = hit.Source
	}
	return events, nil
}
