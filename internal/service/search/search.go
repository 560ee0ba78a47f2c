package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/delilah-resto/api/internal/models"
)

// ErrUnavailable is returned when no Elasticsearch client is configured.
var ErrUnavailable = errors.New("search is not available")

// Service indexes menu products and answers fuzzy name searches. A zero
// Service (no client) returns ErrUnavailable from every call.
type Service struct {
	ES    *elasticsearch.Client
	Index string
}

type doc struct {
	Code  string  `json:"ID"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (s *Service) Products(ctx context.Context, query string, size int) ([]models.Product, error) {
	if s == nil || s.ES == nil {
		return nil, ErrUnavailable
	}
	if size <= 0 || size > 100 {
		size = 10
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "ID"},
				"fuzziness": "AUTO",
			},
		},
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source doc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = models.Product{
			Code:  hit.Source.Code,
			Name:  hit.Source.Name,
			Price: hit.Source.Price,
		}
	}
	return prods, nil
}

func (s *Service) IndexProduct(ctx context.Context, p models.Product) error {
	if s == nil || s.ES == nil {
		return ErrUnavailable
	}

	data, err := json.Marshal(doc{Code: p.Code, Name: p.Name, Price: p.Price})
	if err != nil {
		return err
	}

	res, err := s.ES.Index(
		s.Index,
		strings.NewReader(string(data)),
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(p.Code),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product: %s", res.Status())
	}
	return nil
}

func (s *Service) DeleteProduct(ctx context.Context, code string) error {
	if s == nil || s.ES == nil {
		return ErrUnavailable
	}

	res, err := s.ES.Delete(
		s.Index,
		code,
		s.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product: %s", res.Status())
	}
	return nil
}
