/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"sync"

	"thumbstudio/internal/editor"
	"thumbstudio/internal/layout"
)

// Registry holds the open editor sessions. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*editor.Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*editor.Session{}}
}

// Open starts a session on a copy of doc.
func (r *Registry) Open(doc layout.Document) *editor.Session {
	s := editor.NewSession(doc)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*editor.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close removes a session and tears it down. It reports whether the session existed
// and whether a gesture was still active.
func (r *Registry) Close(id string) (found, endedGesture bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false, false
	}
	return true, s.Close()
}

// CloseAll tears every session down.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = map[string]*editor.Session{}
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Documents snapshots every open layout keyed by session id.
func (r *Registry) Documents() map[string]layout.Document {
	r.mu.RLock()
	list := make([]*editor.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.RUnlock()
	out := make(map[string]layout.Document, len(list))
	for _, s := range list {
		out[s.ID] = s.Document()
	}
	return out
}
