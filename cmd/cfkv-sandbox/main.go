// Command cfkv-sandbox runs a local emulator of the Workers KV REST surface
// backed by the in-memory mock, so SDK consumers can develop without a
// Cloudflare account. Supports latency and failure injection.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edgekv/cfkv_sdk_go/internal/devseed"
	"github.com/edgekv/cfkv_sdk_go/pkg/kv"
	kvmock "github.com/edgekv/cfkv_sdk_go/pkg/kv/mock"
)

type failConfig struct {
	rate float64
	code int
}

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	account := flag.String("account", "sandbox", "account ID segment served by the emulator")
	namespace := flag.String("namespace", "default", "namespace ID segment served by the emulator")
	token := flag.String("token", "sandbox-token", "bearer token required on every request")
	seed := flag.String("seed", "", "path to JSON seed for the namespace")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	flag.Parse()

	rand.Seed(time.Now().UnixNano())

	store := kvmock.New()
	if *seed != "" {
		entries, err := devseed.LoadKVSeed(*seed)
		if err != nil {
			log.Fatalf("load seed: %v", err)
		}
		if err := store.Seed(entries); err != nil {
			log.Fatalf("apply seed: %v", err)
		}
	}

	failCfg, err := parseFailConfig(*fail)
	if err != nil {
		log.Fatalf("parse fail flag: %v", err)
	}

	srv := &sandbox{
		store:  store,
		prefix: fmt.Sprintf("/accounts/%s/storage/kv/namespaces/%s", *account, *namespace),
		token:  *token,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(srv.prefix+"/values/", withMiddleware(*latency, failCfg, srv.handleValues))
	mux.HandleFunc(srv.prefix+"/keys", withMiddleware(*latency, failCfg, srv.handleKeys))

	server := &http.Server{
		Addr:    *addr,
		Handler: mux,
	}

	log.Printf("cfkv-sandbox listening on %s (%d seeded keys)", *addr, store.Len())
	fmt.Println()
	host := *addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	fmt.Println("export CFKV_RUNTIME_MODE=http")
	fmt.Printf("export CFKV_API_BASE_URL=http://%s\n", host)
	fmt.Printf("export CF_ACCOUNT_ID=%s\n", *account)
	fmt.Printf("export CF_KV_NAMESPACE_ID=%s\n", *namespace)
	fmt.Printf("export CF_API_TOKEN=%s\n", *token)
	fmt.Println()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

type sandbox struct {
	store  *kvmock.Mock
	prefix string
	token  string
}

func (s *sandbox) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+s.token
}

func (s *sandbox) handleValues(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeAPIError(w, http.StatusForbidden, 10000, "Authentication error")
		return
	}
	key, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), s.prefix+"/values/"))
	if err != nil || key == "" {
		writeAPIError(w, http.StatusBadRequest, 10011, "invalid key")
		return
	}

	switch r.Method {
	case http.MethodGet:
		res, err := s.store.Get(r.Context(), key)
		if err != nil {
			writeAPIError(w, http.StatusInternalServerError, 10013, err.Error())
			return
		}
		if !res.Found {
			writeAPIError(w, http.StatusNotFound, 10009, "key not found")
			return
		}
		// Value reads return the stored bytes verbatim, not an envelope.
		w.Write(res.Raw)
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		r.Body.Close()
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, 10012, err.Error())
			return
		}
		var opts kv.PutOptions
		if ttl := r.URL.Query().Get("expiration_ttl"); ttl != "" {
			n, err := strconv.Atoi(ttl)
			if err != nil || n < 60 {
				writeAPIError(w, http.StatusBadRequest, 10022, "invalid expiration_ttl")
				return
			}
			opts.ExpirationTTL = n
		}
		if _, err := s.store.Put(r.Context(), key, body, r.Header.Get("Content-Type"), &opts); err != nil {
			writeAPIError(w, http.StatusBadRequest, 10012, err.Error())
			return
		}
		writeSuccess(w, nil)
	case http.MethodDelete:
		if _, err := s.store.Delete(r.Context(), key); err != nil {
			writeAPIError(w, http.StatusNotFound, 10009, "key not found")
			return
		}
		writeSuccess(w, nil)
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, 10010, "method not allowed")
	}
}

func (s *sandbox) handleKeys(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeAPIError(w, http.StatusForbidden, 10000, "Authentication error")
		return
	}
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, 10010, "method not allowed")
		return
	}

	opts := kv.ListOptions{
		Prefix: r.URL.Query().Get("prefix"),
		Cursor: r.URL.Query().Get("cursor"),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > 1000 {
			writeAPIError(w, http.StatusBadRequest, 10021, "invalid limit")
			return
		}
		opts.Limit = n
	}

	res, _, err := s.store.ListKeys(r.Context(), opts)
	if err != nil {
		var apiErr *kv.APIError
		if errors.As(err, &apiErr) {
			writeAPIError(w, apiErr.StatusCode, 10020, strings.TrimPrefix(apiErr.Message, "KV API Error: "))
			return
		}
		writeAPIError(w, http.StatusInternalServerError, 10013, err.Error())
		return
	}
	writeSuccess(w, res)
}

func writeSuccess(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{
		"success":  true,
		"errors":   []any{},
		"messages": []any{},
		"result":   result,
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeAPIError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]any{
		"success":  false,
		"errors":   []map[string]any{{"code": code, "message": message}},
		"messages": []any{},
		"result":   nil,
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func withMiddleware(delay time.Duration, failCfg failConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		if failCfg.rate > 0 && rand.Float64() < failCfg.rate {
			status := failCfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			writeAPIError(w, status, 10001, "failure injected")
			return
		}
		next(w, r)
	}
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keyVal := strings.SplitN(part, "=", 2)
		if len(keyVal) != 2 {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		switch strings.TrimSpace(keyVal[0]) {
		case "rate":
			val, err := strconv.ParseFloat(strings.TrimSpace(keyVal[1]), 64)
			if err != nil {
				return failConfig{}, err
			}
			cfg.rate = val
		case "code":
			val, err := strconv.Atoi(strings.TrimSpace(keyVal[1]))
			if err != nil {
				return failConfig{}, err
			}
			cfg.code = val
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", keyVal[0])
		}
	}
	return cfg, nil
}
