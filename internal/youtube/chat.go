package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
)

// ErrStaleTokens means the chat endpoint rejected the continuation. Callers
// should invalidate cached tokens and re-extract once.
var ErrStaleTokens = errors.New("continuation rejected by chat endpoint")

// ChatBatch is one poll's worth of raw chat items plus the refreshed
// continuation for the next poll. NextContinuation may be empty; callers
// keep the previous token in that case.
type ChatBatch struct {
	Items            []ChatItem
	NextContinuation string
}

// innerTubePoster posts JSON to an InnerTube endpoint. *Client satisfies it.
type innerTubePoster interface {
	PostInnerTube(ctx context.Context, path, apiKey, clientVersion, visitorData string, payload any) ([]byte, error)
}

// ChatPoller fetches pages of live chat from the get_live_chat endpoint.
type ChatPoller struct {
	client   innerTubePoster
	counters *Counters
}

func NewChatPoller(client innerTubePoster, counters *Counters) *ChatPoller {
	if counters == nil {
		counters = &Counters{}
	}
	return &ChatPoller{client: client, counters: counters}
}

// Poll fetches one chat page with the given tokens. limit > 0 truncates the
// result to the most recent limit items.
func (p *ChatPoller) Poll(ctx context.Context, tok *model.SessionTokens, limit int) (*ChatBatch, error) {
	if !tok.Usable() {
		return nil, fmt.Errorf("%w: missing api key or continuation", ErrStaleTokens)
	}

	payload := map[string]any{
		"context":      webContext(tok.ClientVersion, tok.VisitorData),
		"continuation": tok.Continuation,
	}
	body, err := p.client.PostInnerTube(ctx, liveChatPath, tok.APIKey, tok.ClientVersion, tok.VisitorData, payload)
	if err != nil {
		p.counters.ChatPollsFailed.Add(1)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
			return nil, fmt.Errorf("%w: %v", ErrStaleTokens, err)
		}
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		p.counters.ChatPollsFailed.Add(1)
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if resp.ContinuationContents == nil {
		// The stream ended or the continuation silently expired.
		p.counters.ChatPollsFailed.Add(1)
		return nil, fmt.Errorf("%w: no continuation contents", ErrStaleTokens)
	}

	cont := resp.ContinuationContents.LiveChatContinuation
	items := flattenActions(cont.Actions)
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}

	p.counters.ChatPolls.Add(1)
	return &ChatBatch{
		Items:            items,
		NextContinuation: nextContinuation(cont.Continuations),
	}, nil
}

// flattenActions unwraps chat actions into items, descending into replay
// nesting. Action kinds other than addChatItemAction are skipped.
func flattenActions(actions []chatAction) []ChatItem {
	var items []ChatItem
	for _, a := range actions {
		switch {
		case a.AddChatItem != nil:
			items = append(items, a.AddChatItem.Item)
		case a.ReplayChatItem != nil:
			items = append(items, flattenActions(a.ReplayChatItem.Actions)...)
		}
	}
	return items
}

// nextContinuation picks the refreshed continuation token: invalidation
// first, then timed, then reload.
func nextContinuation(variants []continuationVariant) string {
	for _, v := range variants {
		if v.Invalidation != nil && v.Invalidation.Continuation != "" {
			return v.Invalidation.Continuation
		}
	}
	for _, v := range variants {
		if v.Timed != nil && v.Timed.Continuation != "" {
			return v.Timed.Continuation
		}
	}
	for _, v := range variants {
		if v.Reload != nil && v.Reload.Continuation != "" {
			return v.Reload.Continuation
		}
	}
	return ""
}
