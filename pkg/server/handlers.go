package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/getmockd/seedql/pkg/graphql"
	"github.com/getmockd/seedql/pkg/httputil"
	"github.com/getmockd/seedql/pkg/instance"
	"github.com/getmockd/seedql/pkg/seed"
	"github.com/getmockd/seedql/pkg/store"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// maxSeedBodySize bounds seed management request bodies.
const maxSeedBodySize = 1 << 20

// RegisterRequest is the body of POST /seeds/{source}/{variant}.
type RegisterRequest struct {
	GroupID string            `json:"groupId"`
	Kind    string            `json:"kind,omitempty"`
	Seed    seed.Input        `json:"seed"`
	Options seed.OptionsInput `json:"options"`
}

// UpdateRequest is the body of PUT /seeds/{source}/{variant}.
type UpdateRequest struct {
	GroupID        string            `json:"groupId"`
	MatchArguments map[string]any    `json:"matchArguments,omitempty"`
	Seed           seed.Input        `json:"seed"`
	Options        seed.OptionsInput `json:"options"`
}

// DeleteRequest is the body of DELETE /seeds/{source}/{variant}.
type DeleteRequest struct {
	GroupID        string         `json:"groupId"`
	OperationName  string         `json:"operationName"`
	MatchArguments map[string]any `json:"matchArguments,omitempty"`
}

// UpdateResponse reports the outcome of an update. Updated is false when no
// seed matched.
type UpdateResponse struct {
	Updated bool       `json:"updated"`
	Seed    *seed.Seed `json:"seed,omitempty"`
}

// DeleteResponse reports the outcome of a delete.
type DeleteResponse struct {
	Deleted bool       `json:"deleted"`
	Seed    *seed.Seed `json:"seed,omitempty"`
}

// ListResponse is the body of GET /seeds/{source}/{variant}.
type ListResponse struct {
	Seeds []*seed.Seed `json:"seeds"`
	Count int          `json:"count"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string   `json:"status"`
	Instances []string `json:"instances"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	keys := s.manager.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	httputil.WriteOK(w, HealthResponse{Status: "ok", Instances: names})
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	inst, err := s.instance(r)
	if err != nil {
		writeGraphQLError(w, httputil.StatusOf(err), err)
		return
	}

	req, err := graphql.DecodeRequest(r)
	if err != nil {
		writeGraphQLError(w, http.StatusBadRequest, err)
		return
	}

	res, err := inst.Execute(r.Context(), s.group(r), req)
	if err != nil {
		writeGraphQLError(w, httputil.StatusOf(err), err)
		return
	}
	if res.Matched {
		w.Header().Set(SeedIDHeader, res.SeedID)
	}
	httputil.WriteJSON(w, res.StatusCode, res.Body)
}

func (s *Server) handleListSeeds(w http.ResponseWriter, r *http.Request) {
	inst, err := s.instance(r)
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}
	seeds := inst.Registry.List(r.URL.Query().Get("groupId"))
	if seeds == nil {
		seeds = []*seed.Seed{}
	}
	httputil.WriteOK(w, ListResponse{Seeds: seeds, Count: len(seeds)})
}

func (s *Server) handleRegisterSeed(w http.ResponseWriter, r *http.Request) {
	inst, err := s.instance(r)
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}

	var body RegisterRequest
	if err := decodeJSON(r, &body); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	kind, err := seed.ParseKind(body.Kind)
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}
	sd, err := seed.Validate(body.GroupID, kind, body.Seed, body.Options)
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}

	if s.store != nil {
		if err := s.store.Put(inst.Key, store.RecordFromSeed(sd)); err != nil {
			s.log.Error("failed to persist seed", "instance", inst.Key.String(), "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to persist seed", "")
			return
		}
	}
	inst.Registry.Add(sd)
	httputil.WriteCreated(w, sd)
}

func (s *Server) handleUpdateSeed(w http.ResponseWriter, r *http.Request) {
	inst, err := s.instance(r)
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}

	var body UpdateRequest
	if err := decodeJSON(r, &body); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	sd, err := inst.Registry.Update(body.GroupID, body.MatchArguments, body.Seed, body.Options)
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}
	if sd == nil {
		httputil.WriteOK(w, UpdateResponse{Updated: false})
		return
	}

	if s.store != nil {
		if err := s.store.Put(inst.Key, store.RecordFromSeed(sd)); err != nil {
			s.log.Error("failed to persist seed update", "instance", inst.Key.String(), "id", sd.ID, "error", err)
		}
	}
	httputil.WriteOK(w, UpdateResponse{Updated: true, Seed: sd})
}

func (s *Server) handleDeleteSeed(w http.ResponseWriter, r *http.Request) {
	inst, err := s.instance(r)
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}

	var body DeleteRequest
	if err := decodeJSON(r, &body); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if body.GroupID == "" {
		httputil.WriteErr(w, &seed.ValidationError{Field: "groupId", Message: "is required"})
		return
	}
	if body.OperationName == "" {
		httputil.WriteErr(w, &seed.ValidationError{Field: "operationName", Message: "is required"})
		return
	}

	sd := inst.Registry.Delete(body.GroupID, body.OperationName, body.MatchArguments)
	if sd == nil {
		httputil.WriteOK(w, DeleteResponse{Deleted: false})
		return
	}

	if s.store != nil {
		if _, err := s.store.Remove(inst.Key, sd.ID); err != nil {
			s.log.Error("failed to remove persisted seed", "instance", inst.Key.String(), "id", sd.ID, "error", err)
		}
	}
	httputil.WriteOK(w, DeleteResponse{Deleted: true, Seed: sd})
}

// instance resolves the mock instance named by the request path.
func (s *Server) instance(r *http.Request) (*instance.Instance, error) {
	key := instance.NewKey(r.PathValue("source"), r.PathValue("variant"))
	return s.manager.Get(r.Context(), key)
}

// group returns the seed group of a GraphQL request: the group header, then
// the group query parameter, then the default group.
func (s *Server) group(r *http.Request) string {
	if g := r.Header.Get(s.groupHeader); g != "" {
		return g
	}
	if g := r.URL.Query().Get("group"); g != "" {
		return g
	}
	return instance.DefaultGroup
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSeedBodySize+1))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	if len(body) > maxSeedBodySize {
		return fmt.Errorf("request body exceeds %d bytes", maxSeedBodySize)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON request body: %v", err)
	}
	return nil
}

// writeGraphQLError writes err as a GraphQL response with a single error.
func writeGraphQLError(w http.ResponseWriter, status int, err error) {
	resp := &graphql.Response{Errors: gqlerror.List{{Message: err.Error()}}}
	if hint := httputil.HintOf(err); hint != "" {
		resp.SetExtension("hint", hint)
	}
	httputil.WriteJSON(w, status, resp)
}
