/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTokenSignVerifyRoundTrip(t *testing.T) {
	secret := "unit-test-secret"
	exp := time.Now().Add(time.Hour)
	tok, err := signToken(secret, "alice", exp)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sub, err := verifyToken(secret, tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("subject = %q, want alice", sub)
	}
}

func TestTokenRejectsTamperingAndExpiry(t *testing.T) {
	secret := "unit-test-secret"
	tok, err := signToken(secret, "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifyToken("other-secret", tok); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
	if _, err := verifyToken(secret, tok+"x"); err == nil {
		t.Fatalf("expected verification failure for tampered token")
	}
	expired, err := signToken(secret, "alice", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}
	if _, err := verifyToken(secret, expired); err == nil {
		t.Fatalf("expected verification failure for expired token")
	}
}

func TestWithAuthGatesRequests(t *testing.T) {
	secret := "unit-test-secret"
	var gotSub string
	h := withAuth(secret, func(w http.ResponseWriter, r *http.Request, subject string) {
		gotSub = subject
		w.WriteHeader(http.StatusOK)
	})

	// No token.
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/scripts", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	// Valid token.
	tok, err := signToken(secret, "bob", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/scripts", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", rec.Code)
	}
	if gotSub != "bob" {
		t.Fatalf("subject = %q, want bob", gotSub)
	}
}

// fakeServer implements the sync API in memory so Client methods can be
// exercised without Postgres.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	type rev struct {
		Version int64
		Payload json.RawMessage
	}
	scripts := map[string][]rev{}
	names := map[string]string{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/scripts", func(w http.ResponseWriter, r *http.Request) {
		var list []Script
		var id int64
		for sid, revs := range scripts {
			id++
			list = append(list, Script{
				ID:        id,
				StableID:  sid,
				Name:      names[sid],
				UpdatedAt: time.Now(),
				Version:   revs[len(revs)-1].Version,
			})
		}
		writeJSON(w, http.StatusOK, list)
	})
	mux.HandleFunc("/api/scripts/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		sid := parts[2]
		switch parts[3] {
		case "latest":
			revs := scripts[sid]
			if len(revs) == 0 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			last := revs[len(revs)-1]
			writeJSON(w, http.StatusOK, map[string]any{
				"stable_id":  sid,
				"version":    last.Version,
				"created_at": time.Now().UTC().Format(time.RFC3339),
				"payload":    last.Payload,
			})
		case "revisions":
			var req struct {
				Name    string          `json:"name"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			names[sid] = req.Name
			ver := int64(len(scripts[sid]) + 1)
			scripts[sid] = append(scripts[sid], rev{Version: ver, Payload: req.Payload})
			writeJSON(w, http.StatusOK, map[string]any{"stable_id": sid, "version": ver})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientPushListAndFetchLatest(t *testing.T) {
	srv := fakeServer(t)
	c := NewClient(srv.URL, "")
	ctx := context.Background()

	payload1 := []byte(`{"version":1,"lines":[]}`)
	v, err := c.PushRevision(ctx, "my-script", "My Script", payload1)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if v != 1 {
		t.Fatalf("first push version = %d, want 1", v)
	}
	payload2 := []byte(`{"version":1,"lines":[{"format":"header","content":"INT. LAB - NIGHT"}]}`)
	if v, err = c.PushRevision(ctx, "my-script", "My Script", payload2); err != nil || v != 2 {
		t.Fatalf("second push: v=%d err=%v", v, err)
	}

	list, err := c.ListScripts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].StableID != "my-script" || list[0].Version != 2 {
		t.Fatalf("unexpected list: %#v", list)
	}

	env, err := c.GetLatestRevision(ctx, "my-script")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if env.Version != 2 || !strings.Contains(string(env.Payload), "INT. LAB - NIGHT") {
		t.Fatalf("unexpected latest revision: %#v", env)
	}
}

func TestSyncSinkPushesPayloads(t *testing.T) {
	srv := fakeServer(t)
	sink := &SyncSink{Client: NewClient(srv.URL, ""), StableID: "sink-script", Name: "Sink Script"}
	if err := sink.PersistScript(context.Background(), []byte(`{"version":1,"lines":[]}`)); err != nil {
		t.Fatalf("persist: %v", err)
	}
	env, err := sink.Client.GetLatestRevision(context.Background(), "sink-script")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if env.Version != 1 {
		t.Fatalf("version = %d, want 1", env.Version)
	}
}
