package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/grpc"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/proto"
	apperrors "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/errors"
)

const (
	MethodSnippet = "SnippetService.Snippet"
	MethodStats   = "SnippetService.Stats"
	MethodHealth  = "SnippetService.Health"
)

// RegisterRPC exposes the handler's operations on s.
func (h *Handler) RegisterRPC(s *grpc.Server) {
	s.Register(MethodSnippet, h.rpcSnippet)
	s.Register(MethodStats, h.rpcStats)
	s.Register(MethodHealth, h.rpcHealth)
}

func (h *Handler) rpcSnippet(ctx context.Context, raw json.RawMessage) (any, error) {
	var req proto.SnippetRequest
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding snippet request: %w", apperrors.ErrInvalidInput)
		}
	}
	resp, err := h.Snippet(ctx, req.Query, "rpc", false)
	if err != nil {
		return nil, err
	}
	out := &proto.SnippetResponse{
		Query:       resp.Query,
		Snippet:     resp.Snippet,
		ResultType:  string(resp.ResultType),
		Terms:       resp.Terms,
		Unknown:     resp.Unknown,
		CacheHit:    resp.CacheHit,
		LatencyUS:   resp.LatencyUS,
		Fingerprint: resp.Fingerprint,
	}
	for _, s := range resp.Sentences {
		out.Sentences = append(out.Sentences, proto.SentenceHit{
			Sentence: s.Sentence,
			Term:     s.Term,
			Weight:   s.Weight,
			Text:     s.Text,
		})
	}
	return out, nil
}

func (h *Handler) rpcStats(_ context.Context, raw json.RawMessage) (any, error) {
	if h.index == nil {
		return nil, apperrors.ErrEngineNotReady
	}
	req := proto.StatsRequest{Top: defaultTopTerms}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding stats request: %w", apperrors.ErrInvalidInput)
		}
	}
	stats := h.indexStats(min(max(req.Top, 0), maxTopTerms))
	out := &proto.StatsResponse{
		Sentences:   stats.Sentences,
		Terms:       stats.Terms,
		Characters:  stats.Characters,
		Fingerprint: stats.Fingerprint,
		BuildMs:     stats.BuildMs,
	}
	for _, t := range stats.TopTerms {
		out.TopTerms = append(out.TopTerms, proto.TermStat{Term: t.Term, Occurrences: t.Occurrences})
	}
	return out, nil
}

func (h *Handler) rpcHealth(context.Context, json.RawMessage) (any, error) {
	status := "SERVING"
	if h.executor == nil || h.index == nil {
		status = "NOT_SERVING"
	}
	return &proto.HealthCheckResponse{Status: status}, nil
}
