//go:build integration

// Package integration contains end-to-end workflow tests that run the full
// client stack against an in-process JSON:API server.
package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/japi/pkg/japi"
	"github.com/fivetwenty-io/japi/pkg/japiclient"
)

// NewTestRegistry declares the schema the workflow tests run against.
func NewTestRegistry() *japi.Registry {
	registry := japi.NewRegistry()
	registry.RegisterType(&japi.ResourceType{
		Name: "articles",
		Fields: []*japi.Field{
			{Name: "title", Kind: japi.FieldAttribute},
			{Name: "body", Kind: japi.FieldAttribute},
			{Name: "author", Kind: japi.FieldToOne, LinkedType: "people"},
			{Name: "comments", Kind: japi.FieldToMany, LinkedType: "comments"},
		},
	})
	registry.RegisterType(&japi.ResourceType{
		Name: "people",
		Fields: []*japi.Field{
			{Name: "name", Kind: japi.FieldAttribute},
		},
	})
	registry.RegisterType(&japi.ResourceType{
		Name: "comments",
		Fields: []*japi.Field{
			{Name: "body", Kind: japi.FieldAttribute},
		},
	})

	return registry
}

// StartTestAPI starts an in-memory JSON:API server and a client pointed at
// it. The server is stateful within one test and torn down with the test.
func StartTestAPI(t *testing.T) (*APIServer, japi.Client) {
	t.Helper()

	api := &APIServer{data: map[string]map[string]*storedResource{}}
	api.server = httptest.NewServer(api)
	t.Cleanup(api.server.Close)

	client, err := japiclient.NewWithEndpoint(api.server.URL, NewTestRegistry())
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	return api, client
}

// APIServer is a minimal stateful JSON:API backend. It supports collection
// and resource fetches with filters and page-based pagination, resource
// creation and updates, deletion, and relationship endpoints.
type APIServer struct {
	mu     sync.Mutex
	nextID int
	data   map[string]map[string]*storedResource
	server *httptest.Server
}

type storedResource struct {
	resourceType string
	id           string
	attributes   map[string]interface{}
	toOne        map[string]*linkage
	toMany       map[string][]linkage
}

type linkage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Seed inserts a resource directly, bypassing the HTTP surface.
func (s *APIServer) Seed(resourceType string, attributes map[string]interface{}) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(resourceType, attributes).id
}

// Count reports how many resources of a type the server holds.
func (s *APIServer) Count(resourceType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.data[resourceType])
}

func (s *APIServer) insert(resourceType string, attributes map[string]interface{}) *storedResource {
	s.nextID++

	record := &storedResource{
		resourceType: resourceType,
		id:           strconv.Itoa(s.nextID),
		attributes:   attributes,
		toOne:        map[string]*linkage{},
		toMany:       map[string][]linkage{},
	}

	if s.data[resourceType] == nil {
		s.data[resourceType] = map[string]*storedResource{}
	}

	s.data[resourceType][record.id] = record

	return record
}

func (s *APIServer) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writer.Header().Set("Content-Type", "application/vnd.api+json")

	parts := strings.Split(strings.Trim(request.URL.Path, "/"), "/")

	switch {
	case len(parts) == 1:
		s.handleCollection(writer, request, parts[0])
	case len(parts) == 2:
		s.handleResource(writer, request, parts[0], parts[1])
	case len(parts) == 4 && parts[2] == "relationships":
		s.handleRelationship(writer, request, parts[0], parts[1], parts[3])
	default:
		s.writeError(writer, http.StatusNotFound, "Not Found", "unknown path "+request.URL.Path)
	}
}

//nolint:funlen
func (s *APIServer) handleCollection(writer http.ResponseWriter, request *http.Request, resourceType string) {
	switch request.Method {
	case http.MethodGet:
		records := s.sortedRecords(resourceType)
		records = filterRecords(records, request.URL.Query())

		links := map[string]interface{}{}

		pageSize, _ := strconv.Atoi(request.URL.Query().Get("page[size]"))
		if pageSize > 0 {
			pageNumber, _ := strconv.Atoi(request.URL.Query().Get("page[number]"))
			if pageNumber < 1 {
				pageNumber = 1
			}

			start := (pageNumber - 1) * pageSize
			if start > len(records) {
				start = len(records)
			}

			end := start + pageSize
			if end < len(records) {
				links["next"] = s.pageURL(request, pageNumber+1, pageSize)
			} else {
				end = len(records)
			}

			if pageNumber > 1 {
				links["prev"] = s.pageURL(request, pageNumber-1, pageSize)
			}

			records = records[start:end]
		}

		data := make([]interface{}, 0, len(records))
		for _, record := range records {
			data = append(data, renderResource(record))
		}

		body := map[string]interface{}{"data": data}
		if len(links) > 0 {
			body["links"] = links
		}

		s.writeJSON(writer, http.StatusOK, body)

	case http.MethodPost:
		doc := decodeDocument(request)

		record := s.insert(resourceType, doc.Data.Attributes)
		applyRelationships(record, doc.Data.Relationships)

		s.writeJSON(writer, http.StatusCreated, map[string]interface{}{"data": renderResource(record)})

	default:
		s.writeError(writer, http.StatusMethodNotAllowed, "Method Not Allowed", request.Method)
	}
}

func (s *APIServer) handleResource(writer http.ResponseWriter, request *http.Request, resourceType, id string) {
	record, ok := s.data[resourceType][id]
	if !ok {
		s.writeError(writer, http.StatusNotFound, "Not Found",
			fmt.Sprintf("no %s with id %s", resourceType, id))

		return
	}

	switch request.Method {
	case http.MethodGet:
		s.writeJSON(writer, http.StatusOK, map[string]interface{}{"data": renderResource(record)})

	case http.MethodPatch:
		doc := decodeDocument(request)

		for name, value := range doc.Data.Attributes {
			record.attributes[name] = value
		}

		applyRelationships(record, doc.Data.Relationships)

		s.writeJSON(writer, http.StatusOK, map[string]interface{}{"data": renderResource(record)})

	case http.MethodDelete:
		delete(s.data[resourceType], id)
		writer.WriteHeader(http.StatusNoContent)

	default:
		s.writeError(writer, http.StatusMethodNotAllowed, "Method Not Allowed", request.Method)
	}
}

func (s *APIServer) handleRelationship(writer http.ResponseWriter, request *http.Request, resourceType, id, name string) {
	record, ok := s.data[resourceType][id]
	if !ok {
		s.writeError(writer, http.StatusNotFound, "Not Found",
			fmt.Sprintf("no %s with id %s", resourceType, id))

		return
	}

	var doc struct {
		Data json.RawMessage `json:"data"`
	}

	_ = json.NewDecoder(request.Body).Decode(&doc)

	var many []linkage
	if err := json.Unmarshal(doc.Data, &many); err != nil {
		many = nil
	}

	switch request.Method {
	case http.MethodPatch:
		switch {
		case string(doc.Data) == "null":
			record.toOne[name] = nil
		case many != nil:
			record.toMany[name] = many
		default:
			one := &linkage{}
			_ = json.Unmarshal(doc.Data, one)
			record.toOne[name] = one
		}

	case http.MethodPost:
		record.toMany[name] = append(record.toMany[name], many...)

	case http.MethodDelete:
		kept := record.toMany[name][:0]

		for _, existing := range record.toMany[name] {
			removed := false

			for _, gone := range many {
				if existing == gone {
					removed = true
				}
			}

			if !removed {
				kept = append(kept, existing)
			}
		}

		record.toMany[name] = kept

	default:
		s.writeError(writer, http.StatusMethodNotAllowed, "Method Not Allowed", request.Method)

		return
	}

	writer.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) sortedRecords(resourceType string) []*storedResource {
	records := make([]*storedResource, 0, len(s.data[resourceType]))
	for _, record := range s.data[resourceType] {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		left, _ := strconv.Atoi(records[i].id)
		right, _ := strconv.Atoi(records[j].id)

		return left < right
	})

	return records
}

func (s *APIServer) pageURL(request *http.Request, number, size int) string {
	return fmt.Sprintf("%s%s?page[number]=%d&page[size]=%d",
		s.server.URL, request.URL.Path, number, size)
}

func (s *APIServer) writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}

func (s *APIServer) writeError(writer http.ResponseWriter, status int, title, detail string) {
	s.writeJSON(writer, status, map[string]interface{}{
		"errors": []map[string]string{{
			"status": strconv.Itoa(status),
			"title":  title,
			"detail": detail,
		}},
	})
}

type incomingDocument struct {
	Data struct {
		Type          string                     `json:"type"`
		ID            string                     `json:"id"`
		Attributes    map[string]interface{}     `json:"attributes"`
		Relationships map[string]json.RawMessage `json:"relationships"`
	} `json:"data"`
}

func decodeDocument(request *http.Request) *incomingDocument {
	doc := &incomingDocument{}
	_ = json.NewDecoder(request.Body).Decode(doc)

	if doc.Data.Attributes == nil {
		doc.Data.Attributes = map[string]interface{}{}
	}

	return doc
}

func applyRelationships(record *storedResource, relationships map[string]json.RawMessage) {
	for name, raw := range relationships {
		var wrapper struct {
			Data json.RawMessage `json:"data"`
		}

		_ = json.Unmarshal(raw, &wrapper)

		var many []linkage
		if err := json.Unmarshal(wrapper.Data, &many); err == nil {
			record.toMany[name] = many

			continue
		}

		if string(wrapper.Data) == "null" {
			record.toOne[name] = nil

			continue
		}

		one := &linkage{}
		_ = json.Unmarshal(wrapper.Data, one)
		record.toOne[name] = one
	}
}

func filterRecords(records []*storedResource, query map[string][]string) []*storedResource {
	filtered := records

	for key, values := range query {
		if !strings.HasPrefix(key, "filter[") || len(values) == 0 {
			continue
		}

		field := strings.TrimSuffix(strings.TrimPrefix(key, "filter["), "]")
		allowed := strings.Split(values[0], ",")

		kept := make([]*storedResource, 0, len(filtered))

		for _, record := range filtered {
			value := fmt.Sprint(record.attributes[field])

			for _, candidate := range allowed {
				if value == candidate {
					kept = append(kept, record)

					break
				}
			}
		}

		filtered = kept
	}

	return filtered
}

func renderResource(record *storedResource) map[string]interface{} {
	resource := map[string]interface{}{
		"type": record.resourceType,
		"id":   record.id,
	}

	if len(record.attributes) > 0 {
		resource["attributes"] = record.attributes
	}

	relationships := map[string]interface{}{}

	for name, link := range record.toOne {
		if link == nil {
			relationships[name] = map[string]interface{}{"data": nil}
		} else {
			relationships[name] = map[string]interface{}{"data": link}
		}
	}

	for name, links := range record.toMany {
		relationships[name] = map[string]interface{}{"data": links}
	}

	if len(relationships) > 0 {
		resource["relationships"] = relationships
	}

	return resource
}
