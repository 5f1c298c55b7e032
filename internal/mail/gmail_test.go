package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/common"
)

type fakeGmail struct {
	pages    [][]string
	messages map[string]any
	queries  []string
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/gmail/v1/users/me/messages":
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		page := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			page = int(tok[0] - '0')
		}
		resp := map[string]any{}
		var msgs []map[string]string
		if page < len(f.pages) {
			for _, id := range f.pages[page] {
				msgs = append(msgs, map[string]string{"id": id})
			}
		}
		resp["messages"] = msgs
		if page+1 < len(f.pages) {
			resp["nextPageToken"] = string(rune('0' + page + 1))
		}
		_ = json.NewEncoder(w).Encode(resp)
	default:
		id := r.URL.Path[len("/gmail/v1/users/me/messages/"):]
		msg, ok := f.messages[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(msg)
	}
}

func newTestSource(t *testing.T, f *fakeGmail) *GmailSource {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	src, err := NewGmailSource(context.Background(), common.GmailConfig{UserID: "me"}, nil,
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return src
}

func TestListMessageIDsPaginates(t *testing.T) {
	f := &fakeGmail{pages: [][]string{{"a", "b"}, {"c"}}}
	src := newTestSource(t, f)

	ids, err := src.ListMessageIDs(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	require.NotEmpty(t, f.queries)
	assert.Equal(t, constants.DefaultMailQuery, f.queries[0])
}

func TestListMessageIDsEmpty(t *testing.T) {
	src := newTestSource(t, &fakeGmail{})
	_, err := src.ListMessageIDs(context.Background(), "from:nobody")
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestGetMessageFindsNestedHTMLPart(t *testing.T) {
	body := base64.URLEncoding.EncodeToString([]byte("<p>hi</p>"))
	f := &fakeGmail{messages: map[string]any{
		"m1": map[string]any{
			"id":           "m1",
			"internalDate": "1700000000000",
			"payload": map[string]any{
				"mimeType": "multipart/mixed",
				"parts": []any{
					map[string]any{
						"mimeType": "multipart/alternative",
						"parts": []any{
							map[string]any{"mimeType": "text/plain", "body": map[string]any{"data": "eA"}},
							map[string]any{"mimeType": "text/html", "body": map[string]any{"data": body}},
						},
					},
				},
			},
		},
	}}
	src := newTestSource(t, f)

	msg, err := src.GetMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	require.NotNil(t, msg.InternalDate)
	assert.Equal(t, int64(1700000000000), *msg.InternalDate)

	html, err := Decode(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", html)
}

func TestGetMessageWithoutHTML(t *testing.T) {
	f := &fakeGmail{messages: map[string]any{
		"m2": map[string]any{
			"id":      "m2",
			"payload": map[string]any{"mimeType": "text/plain", "body": map[string]any{"data": "eA"}},
		},
	}}
	src := newTestSource(t, f)

	_, err := src.GetMessage(context.Background(), "m2")
	assert.ErrorIs(t, err, ErrNoHTMLBody)
}

func TestGetMessageAPIError(t *testing.T) {
	src := newTestSource(t, &fakeGmail{})
	_, err := src.GetMessage(context.Background(), "missing")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoHTMLBody)
}
