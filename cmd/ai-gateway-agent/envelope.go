package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/looplj/ai-gateway-agent/gateway/protocol"
)

// envelope is the reference wire shape for one line of the collaborator
// RPC stream: a discriminated union over the three event kinds this agent
// reacts to. The production envelope (UDS framing, gRPC service definition)
// is a collaborator-side concern; this is the minimal illustrative
// transport cmd/ai-gateway-agent ships so the core is reachable at all.
type envelope struct {
	Type string `json:"type"`

	AgentID string          `json:"agent_id,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`

	CorrelationID string              `json:"correlation_id,omitempty"`
	ClientIP      string              `json:"client_ip,omitempty"`
	URI           string              `json:"uri,omitempty"`
	Method        string              `json:"method,omitempty"`
	Headers       map[string][]string `json:"headers,omitempty"`

	Data       string `json:"data,omitempty"` // base64
	IsLast     bool   `json:"is_last,omitempty"`
	ChunkIndex int    `json:"chunk_index,omitempty"`
}

func (e envelope) toConfigureEvent() protocol.ConfigureEvent {
	return protocol.ConfigureEvent{AgentID: e.AgentID, Config: e.Config}
}

func (e envelope) toHeadersEvent() protocol.RequestHeadersEvent {
	h := http.Header{}
	for k, vs := range e.Headers {
		for _, v := range vs {
			h.Add(k, v)
		}
	}

	return protocol.RequestHeadersEvent{
		CorrelationID: e.CorrelationID,
		ClientIP:      e.ClientIP,
		URI:           e.URI,
		Method:        e.Method,
		Headers:       h,
	}
}

func (e envelope) toBodyChunkEvent() (protocol.RequestBodyChunkEvent, error) {
	data, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return protocol.RequestBodyChunkEvent{}, fmt.Errorf("decode body chunk: %w", err)
	}

	return protocol.RequestBodyChunkEvent{
		CorrelationID: e.CorrelationID,
		Data:          data,
		IsLast:        e.IsLast,
		ChunkIndex:    e.ChunkIndex,
	}, nil
}

// wireResponse is the JSON shape written back for every event.
type wireResponse struct {
	Allow           bool              `json:"allow"`
	Block           *wireBlock        `json:"block,omitempty"`
	RequestHeaders  []wireHeaderOp    `json:"request_headers,omitempty"`
	ResponseHeaders []wireHeaderOp    `json:"response_headers,omitempty"`
	Audit           wireAuditMetadata `json:"audit"`
}

type wireBlock struct {
	Status int     `json:"status"`
	Body   *string `json:"body,omitempty"`
}

type wireHeaderOp struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type wireAuditMetadata struct {
	Tags        []string `json:"tags,omitempty"`
	ReasonCodes []string `json:"reason_codes,omitempty"`
}

func toWireResponse(r protocol.Response) wireResponse {
	w := wireResponse{
		Allow: r.Allow,
		Audit: wireAuditMetadata{Tags: r.Audit.Tags, ReasonCodes: r.Audit.ReasonCodes},
	}

	if r.Block != nil {
		w.Block = &wireBlock{Status: r.Block.Status, Body: r.Block.Body}
	}

	for _, op := range r.RequestHeaders {
		w.RequestHeaders = append(w.RequestHeaders, wireHeaderOp{Name: op.Name, Value: op.Value})
	}

	for _, op := range r.ResponseHeaders {
		w.ResponseHeaders = append(w.ResponseHeaders, wireHeaderOp{Name: op.Name, Value: op.Value})
	}

	return w
}
