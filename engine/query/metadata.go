package query

import (
	"encoding/json"
	"strconv"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/WessleyAI/wessley-mvp/engine/llm"
	"github.com/WessleyAI/wessley-mvp/engine/tenant"
)

// Per-call metadata keys the Chat RPC reads tenant identifiers and history
// from. userIDMetadataKey matches the distilled source's ChatService and
// KnowledgeBaseService convention; the org/group/history keys are this
// core's own addition (the distilled source never scoped chat by org or
// group, only by user).
const (
	userIDMetadataKey  = "x-user-id"
	orgIDMetadataKey   = "x-organization-id"
	groupIDsMetadataKey = "x-group-ids"
	historyMetadataKey = "x-chat-history"
)

// historyEntry mirrors the wire shape of one JSON history item; entries
// missing either key are filtered out per §4.5.
type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func requestFromMetadata(md metadata.MD) tenant.Request {
	var r tenant.Request

	if v := firstValue(md, userIDMetadataKey); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.UserID = id
			r.HasUserID = true
		}
	}
	if v := firstValue(md, orgIDMetadataKey); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.OrganizationID = id
			r.HasOrgID = true
		}
	}
	if v := firstValue(md, groupIDsMetadataKey); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				r.GroupIDs = append(r.GroupIDs, id)
			}
		}
	}
	return r
}

func historyFromMetadata(md metadata.MD) []llm.Message {
	raw := firstValue(md, historyMetadataKey)
	if raw == "" {
		return nil
	}
	var entries []historyEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	out := make([]llm.Message, 0, len(entries))
	for _, e := range entries {
		if e.Role == "" || e.Content == "" {
			continue
		}
		out = append(out, llm.Message{Role: e.Role, Content: e.Content})
	}
	return out
}

func firstValue(md metadata.MD, key string) string {
	vals := md.Get(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
