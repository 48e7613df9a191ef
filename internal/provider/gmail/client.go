package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/provider"
	"github.com/lu-zhengda/gmailkit/internal/store"
)

const userID = "me"

// Provider implements provider.Service against the Gmail API.
type Provider struct {
	tokenStore *store.KeyringTokenStore
	accountID  string
	service    *gmailapi.Service
	token      *oauth2.Token
}

// New creates a new Gmail provider for the given account.
func New(accountID string, tokenStore *store.KeyringTokenStore) *Provider {
	return &Provider{
		accountID:  accountID,
		tokenStore: tokenStore,
	}
}

// Authenticate runs the OAuth2 flow, saves the token, and initializes the Gmail service.
func (p *Provider) Authenticate(ctx context.Context) error {
	token, err := authenticate(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate gmail: %w", err)
	}

	if err := p.tokenStore.SaveToken(p.accountID, token); err != nil {
		return fmt.Errorf("failed to save gmail token: %w", err)
	}

	p.token = token
	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	p.service = srv
	return nil
}

// IsAuthenticated returns true if the Gmail service is initialized.
func (p *Provider) IsAuthenticated() bool {
	return p.service != nil
}

// initService loads the token from the keyring and creates the Gmail service.
func (p *Provider) initService(ctx context.Context) error {
	token, err := p.tokenStore.LoadToken(p.accountID)
	if err != nil {
		return fmt.Errorf("failed to load gmail token: %w", err)
	}

	p.token = token
	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	p.service = srv
	return nil
}

// ensureService lazily initializes the Gmail service if not already done.
func (p *Provider) ensureService(ctx context.Context) error {
	if p.service != nil {
		return nil
	}
	return p.initService(ctx)
}

// ListMessages returns one page of message ids matching the given options.
func (p *Provider) ListMessages(ctx context.Context, opts provider.ListOptions) (provider.ListPage, error) {
	if err := p.ensureService(ctx); err != nil {
		return provider.ListPage{}, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	call := p.service.Users.Messages.List(userID)
	if opts.MaxResults > 0 {
		call = call.MaxResults(opts.MaxResults)
	}
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}
	if len(opts.LabelIDs) > 0 {
		call = call.LabelIds(opts.LabelIDs...)
	}
	if opts.Query != "" {
		call = call.Q(opts.Query)
	}
	if opts.IncludeSpamTrash {
		call = call.IncludeSpamTrash(true)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return provider.ListPage{}, fmt.Errorf("failed to list gmail messages: %w", err)
	}

	page := provider.ListPage{NextPageToken: resp.NextPageToken}
	for _, m := range resp.Messages {
		page.IDs = append(page.IDs, m.Id)
	}
	return page, nil
}

// GetMessageRaw fetches a single message in raw format.
func (p *Provider) GetMessageRaw(ctx context.Context, id string) (*provider.RawMessage, error) {
	if err := p.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	msg, err := p.service.Users.Messages.Get(userID, id).
		Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get gmail message %s: %w", id, err)
	}
	return mapRawMessage(msg)
}

// BatchGetMessagesRaw fetches the given messages in raw format, invoking fn
// once per id. A non-nil error from fn aborts the remaining fetches.
func (p *Provider) BatchGetMessagesRaw(ctx context.Context, ids []string, fn provider.BatchGetFunc) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	for _, id := range ids {
		msg, err := p.service.Users.Messages.Get(userID, id).
			Format("raw").Context(ctx).Do()
		if err != nil {
			if cbErr := fn(id, nil, err); cbErr != nil {
				return cbErr
			}
			continue
		}
		raw, err := mapRawMessage(msg)
		if cbErr := fn(id, raw, err); cbErr != nil {
			return cbErr
		}
	}
	return nil
}

// ModifyMessage adds and removes labels on a message.
func (p *Provider) ModifyMessage(ctx context.Context, id string, add, remove []string) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	req := &gmailapi.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	_, err := p.service.Users.Messages.Modify(userID, id, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to modify labels on message %s: %w", id, err)
	}
	return nil
}

// TrashMessage moves a message to trash.
func (p *Provider) TrashMessage(ctx context.Context, id string) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	_, err := p.service.Users.Messages.Trash(userID, id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to trash gmail message %s: %w", id, err)
	}
	return nil
}

// UntrashMessage restores a message from trash.
func (p *Provider) UntrashMessage(ctx context.Context, id string) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	_, err := p.service.Users.Messages.Untrash(userID, id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to untrash gmail message %s: %w", id, err)
	}
	return nil
}

// DeleteMessage permanently deletes a message, bypassing trash.
func (p *Provider) DeleteMessage(ctx context.Context, id string) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	if err := p.service.Users.Messages.Delete(userID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete gmail message %s: %w", id, err)
	}
	return nil
}

// BatchDeleteMessages permanently deletes the given messages in one call.
func (p *Provider) BatchDeleteMessages(ctx context.Context, ids []string) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	req := &gmailapi.BatchDeleteMessagesRequest{Ids: ids}
	if err := p.service.Users.Messages.BatchDelete(userID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to batch delete gmail messages: %w", err)
	}
	return nil
}

// BatchModifyMessages adds and removes labels on the given messages in one call.
func (p *Provider) BatchModifyMessages(ctx context.Context, ids []string, add, remove []string) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	req := &gmailapi.BatchModifyMessagesRequest{
		Ids:            ids,
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	if err := p.service.Users.Messages.BatchModify(userID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to batch modify gmail messages: %w", err)
	}
	return nil
}

// ListLabels returns all labels for the authenticated user. The listing
// carries names and types only; counts come from GetLabel.
func (p *Provider) ListLabels(ctx context.Context) ([]domain.Label, error) {
	if err := p.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	resp, err := p.service.Users.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list gmail labels: %w", err)
	}

	labels := make([]domain.Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, mapLabel(l))
	}
	return labels, nil
}

// GetLabel fetches one label with its message and thread counts.
func (p *Provider) GetLabel(ctx context.Context, id string) (*domain.Label, error) {
	if err := p.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	l, err := p.service.Users.Labels.Get(userID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get gmail label %s: %w", id, err)
	}
	label := mapLabel(l)
	return &label, nil
}

// CreateLabel creates a user label and returns its id.
func (p *Provider) CreateLabel(ctx context.Context, patch provider.LabelPatch) (string, error) {
	if err := p.ensureService(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	created, err := p.service.Users.Labels.Create(userID, patchToLabel(patch)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create gmail label %s: %w", patch.Name, err)
	}
	return created.Id, nil
}

// UpdateLabel patches the given fields of a label.
func (p *Provider) UpdateLabel(ctx context.Context, id string, patch provider.LabelPatch) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	_, err := p.service.Users.Labels.Patch(userID, id, patchToLabel(patch)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update gmail label %s: %w", id, err)
	}
	return nil
}

// DeleteLabel deletes a user label.
func (p *Provider) DeleteLabel(ctx context.Context, id string) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	if err := p.service.Users.Labels.Delete(userID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete gmail label %s: %w", id, err)
	}
	return nil
}

// GetProfile returns the authenticated user's email address.
func (p *Provider) GetProfile(ctx context.Context) (string, error) {
	if err := p.ensureService(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	profile, err := p.service.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// Compile-time interface compliance check.
var _ provider.Service = (*Provider)(nil)
