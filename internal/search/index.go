// Package search keeps a searchable directory of public user profiles in
// Elasticsearch. The database stays the source of truth; the index is
// refreshed best-effort after each committed change.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

var ErrDisabled = errors.New("user search is not configured")

type Index interface {
	IndexUser(ctx context.Context, u models.PublicUser) error
	DeleteUser(ctx context.Context, id uint) error
	SearchUsers(ctx context.Context, q string, from, size int) (int64, []models.PublicUser, error)
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return client, nil
}

type ESIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewESIndex(es *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{ES: es, Index: index}
}

// Ping checks the cluster answers; used at startup.
func (i *ESIndex) Ping(ctx context.Context) error {
	res, err := i.ES.Info(i.ES.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("info", res.StatusCode, res.Body)
	}
	return nil
}

func (i *ESIndex) IndexUser(ctx context.Context, u models.PublicUser) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(u); err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	res, err := i.ES.Index(i.Index, &buf,
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(docID(u.ID)),
	)
	if err != nil {
		return fmt.Errorf("index user %d: %w", u.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.StatusCode, res.Body)
	}
	return nil
}

// DeleteUser treats a missing document as already deleted.
func (i *ESIndex) DeleteUser(ctx context.Context, id uint) error {
	res, err := i.ES.Delete(i.Index, docID(id), i.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete", res.StatusCode, res.Body)
	}
	return nil
}

func (i *ESIndex) SearchUsers(ctx context.Context, q string, from, size int) (int64, []models.PublicUser, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"email^2", "firstName", "lastName"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Index),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search users: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.PublicUser `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	users := make([]models.PublicUser, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		users[n] = hit.Source
	}
	return r.Hits.Total.Value, users, nil
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func responseError(op string, status int, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("elasticsearch %s: status %d: %s", op, status, bytes.TrimSpace(msg))
}

// Disabled is used when no cluster is configured.
type Disabled struct{}

func (Disabled) IndexUser(context.Context, models.PublicUser) error { return nil }
func (Disabled) DeleteUser(context.Context, uint) error             { return nil }
func (Disabled) SearchUsers(context.Context, string, int, int) (int64, []models.PublicUser, error) {
	return 0, nil, ErrDisabled
}
