package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/common"
)

const htmlMimeType = "text/html"

// GmailSource reads messages through the Gmail v1 API.
type GmailSource struct {
	svc    *gmail.Service
	userID string
	logger *slog.Logger
}

// NewOAuthTokenSource builds a refreshing token source from stored OAuth credentials.
func NewOAuthTokenSource(ctx context.Context, cfg common.GmailConfig) oauth2.TokenSource {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     google.Endpoint,
	}
	if cfg.Scope != "" {
		conf.Scopes = strings.Fields(cfg.Scope)
	}
	tok := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		TokenType:    cfg.TokenType,
	}
	if cfg.ExpiryMillis > 0 {
		tok.Expiry = time.UnixMilli(cfg.ExpiryMillis)
	}
	return conf.TokenSource(ctx, tok)
}

// NewGmailSource creates a Gmail client. Without explicit client options it authenticates
// with the stored OAuth token from cfg.
func NewGmailSource(ctx context.Context, cfg common.GmailConfig, logger *slog.Logger, opts ...option.ClientOption) (*GmailSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts) == 0 {
		opts = append(opts, option.WithTokenSource(NewOAuthTokenSource(ctx, cfg)))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	userID := cfg.UserID
	if userID == "" {
		userID = "me"
	}
	return &GmailSource{svc: svc, userID: userID, logger: logger}, nil
}

// ListMessageIDs returns all message ids matching query, following pagination. An empty
// query selects DoorDash order confirmations.
func (g *GmailSource) ListMessageIDs(ctx context.Context, query string) ([]string, error) {
	if query == "" {
		query = constants.DefaultMailQuery
	}
	g.logger.Info("fetching messages", "query", query)

	var ids []string
	pageToken := ""
	for {
		call := g.svc.Users.Messages.List(g.userID).Q(query).IncludeSpamTrash(false).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(ids) == 0 {
		return nil, ErrNoMessages
	}
	g.logger.Debug("messages listed", "count", len(ids))
	return ids, nil
}

// GetMessage fetches one message and returns the data of its first text/html part.
func (g *GmailSource) GetMessage(ctx context.Context, id string) (*RawMessage, error) {
	msg, err := g.svc.Users.Messages.Get(g.userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	part := findPart(msg.Payload, htmlMimeType)
	if part == nil || part.Body == nil || part.Body.Data == "" {
		return nil, fmt.Errorf("message %s: %w", id, ErrNoHTMLBody)
	}

	out := &RawMessage{ID: msg.Id, Body: part.Body.Data}
	if msg.InternalDate > 0 {
		ts := msg.InternalDate
		out.InternalDate = &ts
	}
	return out, nil
}

// findPart walks the MIME tree depth first.
func findPart(p *gmail.MessagePart, mimeType string) *gmail.MessagePart {
	if p == nil {
		return nil
	}
	if p.MimeType == mimeType {
		return p
	}
	for _, child := range p.Parts {
		if found := findPart(child, mimeType); found != nil {
			return found
		}
	}
	return nil
}
