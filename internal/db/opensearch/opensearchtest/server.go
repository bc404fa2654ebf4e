// Package opensearchtest provides an in-memory OpenSearch stand-in for tests.
//
// It understands the subset of the REST API the docsearch backend uses:
// index HEAD/PUT, document PUT/GET/DELETE, and _search with a bool query of
// one multi_match clause plus term filters. Scoring counts query token hits
// per field times the field boost.
package opensearchtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// Server is a running fake cluster.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	indices    map[string]*index
	failStatus int
	calls      int
}

type index struct {
	mapping json.RawMessage
	docs    map[string]map[string]any
}

// NewServer starts a fake cluster. Callers must Close it.
func NewServer() *Server {
	s := &Server{indices: make(map[string]*index)}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// SetFailure makes every request answer with status (0 restores normal behavior).
func (s *Server) SetFailure(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// Calls returns how many requests reached the server.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Mapping returns the body an index was created with.
func (s *Server) Mapping(name string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	if !ok {
		return nil, false
	}
	return idx.mapping, true
}

// Source returns a stored document by its raw key.
func (s *Server) Source(indexName, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[indexName]
	if !ok {
		return nil, false
	}
	doc, ok := idx.docs[id]
	return doc, ok
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("HEAD /{index}", s.handleIndexExists)
	mux.HandleFunc("PUT /{index}", s.handleCreateIndex)
	mux.HandleFunc("PUT /{index}/_doc/{id}", s.handlePutDoc)
	mux.HandleFunc("POST /{index}/_doc/{id}", s.handlePutDoc)
	mux.HandleFunc("GET /{index}/_doc/{id}", s.handleGetDoc)
	mux.HandleFunc("DELETE /{index}/_doc/{id}", s.handleDeleteDoc)
	mux.HandleFunc("POST /{index}/_search", s.handleSearch)
	mux.HandleFunc("GET /{index}/_search", s.handleSearch)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls++
		fail := s.failStatus
		s.mu.Unlock()

		if fail != 0 {
			writeError(w, fail, "cluster_unavailable")
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cluster_name": "opensearchtest",
		"version":      map[string]any{"distribution": "opensearch", "number": "2.15.0"},
	})
}

func (s *Server) handleIndexExists(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, ok := s.indices[r.PathValue("index")]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCreateIndex(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception")
		return
	}

	name := r.PathValue("index")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[name]; ok {
		writeError(w, http.StatusBadRequest, "resource_already_exists_exception")
		return
	}
	s.indices[name] = &index{mapping: body, docs: make(map[string]map[string]any)}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "index": name})
}

func (s *Server) handlePutDoc(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "mapper_parsing_exception")
		return
	}

	name, id := r.PathValue("index"), r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	if !ok {
		// Like a real cluster, writes auto-create the index.
		idx = &index{docs: make(map[string]map[string]any)}
		s.indices[name] = idx
	}
	_, existed := idx.docs[id]
	idx.docs[id] = doc

	if existed {
		writeJSON(w, http.StatusOK, map[string]any{"_index": name, "_id": id, "result": "updated"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"_index": name, "_id": id, "result": "created"})
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	name, id := r.PathValue("index"), r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	if !ok {
		writeError(w, http.StatusNotFound, "index_not_found_exception")
		return
	}
	doc, ok := idx.docs[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"_index": name, "_id": id, "found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"_index": name, "_id": id, "found": true, "_source": doc})
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	name, id := r.PathValue("index"), r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	if !ok {
		writeError(w, http.StatusNotFound, "index_not_found_exception")
		return
	}
	if _, ok := idx.docs[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"_index": name, "_id": id, "result": "not_found"})
		return
	}
	delete(idx.docs, id)
	writeJSON(w, http.StatusOK, map[string]any{"_index": name, "_id": id, "result": "deleted"})
}

type searchRequest struct {
	Size  *int `json:"size"`
	Query struct {
		Bool struct {
			Must struct {
				MultiMatch struct {
					Query  string   `json:"query"`
					Fields []string `json:"fields"`
				} `json:"multi_match"`
			} `json:"must"`
			Filter struct {
				Term map[string]string `json:"term"`
			} `json:"filter"`
		} `json:"bool"`
	} `json:"query"`
}

type hit struct {
	id     string
	score  float64
	source map[string]any
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "parsing_exception")
		return
	}
	size := 10
	if req.Size != nil {
		size = *req.Size
	}

	s.mu.Lock()
	idx, ok := s.indices[r.PathValue("index")]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "index_not_found_exception")
		return
	}
	mm := req.Query.Bool.Must.MultiMatch
	terms := tokenize(mm.Query)
	var hits []hit
	for id, doc := range idx.docs {
		if !matchesTerms(doc, req.Query.Bool.Filter.Term) {
			continue
		}
		if score := scoreDoc(doc, mm.Fields, terms); score > 0 {
			hits = append(hits, hit{id: id, score: score, source: doc})
		}
	}
	s.mu.Unlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].id < hits[j].id
	})
	total := len(hits)
	if size < len(hits) {
		hits = hits[:size]
	}

	out := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		out = append(out, map[string]any{"_id": h.id, "_score": h.score, "_source": h.source})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"took":      1,
		"timed_out": false,
		"hits": map[string]any{
			"total": map[string]any{"value": total, "relation": "eq"},
			"hits":  out,
		},
	})
}

func matchesTerms(doc map[string]any, terms map[string]string) bool {
	for field, want := range terms {
		if got, _ := doc[field].(string); got != want {
			return false
		}
	}
	return true
}

func scoreDoc(doc map[string]any, fields, terms []string) float64 {
	var score float64
	for _, spec := range fields {
		name, boost := parseField(spec)
		text, _ := doc[name].(string)
		if text == "" {
			continue
		}
		tokens := tokenize(text)
		for _, term := range terms {
			for _, tok := range tokens {
				if tok == term {
					score += boost
				}
			}
		}
	}
	return score
}

// parseField splits "title^3" into ("title", 3).
func parseField(spec string) (string, float64) {
	name, boost, ok := strings.Cut(spec, "^")
	if !ok {
		return spec, 1
	}
	b, err := strconv.ParseFloat(boost, 64)
	if err != nil {
		return name, 1
	}
	return name, b
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, typ string) {
	writeJSON(w, status, map[string]any{
		"error":  map[string]any{"type": typ, "reason": typ},
		"status": status,
	})
}
