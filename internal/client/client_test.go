package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/provider"
	"github.com/lu-zhengda/gmailkit/internal/query"
)

type modification struct {
	ids    []string
	add    []string
	remove []string
}

// fakeService is an in-memory provider.Service. Listing serves the ids in
// listIDs, paged pageSize at a time; details come from raws.
type fakeService struct {
	labels   []domain.Label
	raws     map[string]*provider.RawMessage
	listIDs  []string
	pageSize int

	failGetID string

	listCalls    []provider.ListOptions
	getIDs       []string
	batchGets    [][]string
	modifies     []modification
	batchMods    []modification
	batchDeletes [][]string
	trashed      []string
	deleted      []string
}

func (f *fakeService) Authenticate(ctx context.Context) error { return nil }
func (f *fakeService) IsAuthenticated() bool                  { return true }
func (f *fakeService) GetProfile(ctx context.Context) (string, error) {
	return "user@example.com", nil
}

func (f *fakeService) ListLabels(ctx context.Context) ([]domain.Label, error) {
	return f.labels, nil
}

func (f *fakeService) GetLabel(ctx context.Context, id string) (*domain.Label, error) {
	for _, l := range f.labels {
		if l.ID == id {
			out := l
			return &out, nil
		}
	}
	// system labels and categories are always resolvable
	return &domain.Label{ID: id, Name: id, Type: domain.LabelTypeSystem}, nil
}

func (f *fakeService) CreateLabel(ctx context.Context, patch provider.LabelPatch) (string, error) {
	id := "Label_" + strconv.Itoa(len(f.labels)+1)
	f.labels = append(f.labels, domain.Label{ID: id, Name: patch.Name, Type: domain.LabelTypeUser})
	return id, nil
}

func (f *fakeService) UpdateLabel(ctx context.Context, id string, patch provider.LabelPatch) error {
	for i := range f.labels {
		if f.labels[i].ID == id {
			if patch.Name != "" {
				f.labels[i].Name = patch.Name
			}
			return nil
		}
	}
	return fmt.Errorf("no label %s", id)
}

func (f *fakeService) DeleteLabel(ctx context.Context, id string) error {
	for i := range f.labels {
		if f.labels[i].ID == id {
			f.labels = append(f.labels[:i], f.labels[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no label %s", id)
}

func (f *fakeService) ListMessages(ctx context.Context, opts provider.ListOptions) (provider.ListPage, error) {
	f.listCalls = append(f.listCalls, opts)

	start := 0
	if opts.PageToken != "" {
		start, _ = strconv.Atoi(opts.PageToken)
	}
	n := f.pageSize
	if n <= 0 {
		n = len(f.listIDs)
	}
	if opts.MaxResults > 0 && int(opts.MaxResults) < n {
		n = int(opts.MaxResults)
	}
	end := start + n
	if end > len(f.listIDs) {
		end = len(f.listIDs)
	}

	page := provider.ListPage{IDs: f.listIDs[start:end]}
	if end < len(f.listIDs) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeService) GetMessageRaw(ctx context.Context, id string) (*provider.RawMessage, error) {
	f.getIDs = append(f.getIDs, id)
	raw, ok := f.raws[id]
	if !ok {
		return nil, fmt.Errorf("no message %s", id)
	}
	return raw, nil
}

func (f *fakeService) BatchGetMessagesRaw(ctx context.Context, ids []string, fn provider.BatchGetFunc) error {
	f.batchGets = append(f.batchGets, ids)
	for _, id := range ids {
		if id == f.failGetID {
			if err := fn(id, nil, fmt.Errorf("backend unavailable")); err != nil {
				return err
			}
			continue
		}
		raw, ok := f.raws[id]
		if !ok {
			return fmt.Errorf("no message %s", id)
		}
		if err := fn(id, raw, nil); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeService) ModifyMessage(ctx context.Context, id string, add, remove []string) error {
	f.modifies = append(f.modifies, modification{ids: []string{id}, add: add, remove: remove})
	f.applyLabelChange(id, add, remove)
	return nil
}

func (f *fakeService) TrashMessage(ctx context.Context, id string) error {
	f.trashed = append(f.trashed, id)
	f.applyLabelChange(id, []string{domain.LabelTrash}, []string{domain.LabelInbox})
	return nil
}

func (f *fakeService) UntrashMessage(ctx context.Context, id string) error {
	f.applyLabelChange(id, nil, []string{domain.LabelTrash})
	return nil
}

func (f *fakeService) DeleteMessage(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.raws, id)
	return nil
}

func (f *fakeService) BatchDeleteMessages(ctx context.Context, ids []string) error {
	f.batchDeletes = append(f.batchDeletes, ids)
	return nil
}

func (f *fakeService) BatchModifyMessages(ctx context.Context, ids []string, add, remove []string) error {
	f.batchMods = append(f.batchMods, modification{ids: ids, add: add, remove: remove})
	return nil
}

func (f *fakeService) applyLabelChange(id string, add, remove []string) {
	raw, ok := f.raws[id]
	if !ok {
		return
	}
	kept := raw.LabelIDs[:0:0]
	for _, l := range raw.LabelIDs {
		if !contains(remove, l) {
			kept = append(kept, l)
		}
	}
	for _, l := range add {
		if !contains(kept, l) {
			kept = append(kept, l)
		}
	}
	raw.LabelIDs = kept
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

type countingLimiter struct {
	waits int
}

func (c *countingLimiter) Wait(ctx context.Context) error {
	c.waits++
	return nil
}

func newTestClient(svc *fakeService, cfg Config) (*Client, *countingLimiter) {
	c := New(svc, cfg)
	limiter := &countingLimiter{}
	c.limiter = limiter
	return c, limiter
}

func plainRaw(id string, date int64, labelIDs ...string) *provider.RawMessage {
	return &provider.RawMessage{
		ID:           id,
		ThreadID:     "t-" + id,
		SizeEstimate: int64(100 + len(id)),
		InternalDate: date,
		LabelIDs:     labelIDs,
	}
}

func seededService(count, pageSize int) *fakeService {
	svc := &fakeService{
		raws:     make(map[string]*provider.RawMessage),
		pageSize: pageSize,
	}
	for i := 0; i < count; i++ {
		id := "m" + strconv.Itoa(i)
		svc.listIDs = append(svc.listIDs, id)
		svc.raws[id] = plainRaw(id, int64(1700000000000+i))
	}
	return svc
}

func TestSearchPaginationStopsAtLimit(t *testing.T) {
	svc := seededService(130, 50)
	c, _ := newTestClient(svc, Config{})

	messages, err := c.Messages().Limit(120).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(messages) != 120 {
		t.Fatalf("got %d messages, want 120", len(messages))
	}
	if len(svc.listCalls) != 3 {
		t.Fatalf("got %d list calls, want 3", len(svc.listCalls))
	}
	wantMax := []int64{120, 70, 20}
	for i, call := range svc.listCalls {
		if call.MaxResults != wantMax[i] {
			t.Errorf("list call %d MaxResults = %d, want %d", i, call.MaxResults, wantMax[i])
		}
	}
}

func TestSearchUnlimitedFollowsAllPages(t *testing.T) {
	svc := seededService(130, 50)
	c, _ := newTestClient(svc, Config{})

	messages, err := c.Messages().Unlimited().Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(messages) != 130 {
		t.Fatalf("got %d messages, want 130", len(messages))
	}
	if len(svc.listCalls) != 3 {
		t.Fatalf("got %d list calls, want 3", len(svc.listCalls))
	}
}

func TestSearchBatchChunking(t *testing.T) {
	svc := seededService(250, 0)
	c, limiter := newTestClient(svc, Config{BatchSize: 100})

	messages, err := c.Messages().Unlimited().Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(messages) != 250 {
		t.Fatalf("got %d messages, want 250", len(messages))
	}

	wantSizes := []int{100, 100, 50}
	if len(svc.batchGets) != len(wantSizes) {
		t.Fatalf("got %d batch calls, want %d", len(svc.batchGets), len(wantSizes))
	}
	for i, batch := range svc.batchGets {
		if len(batch) != wantSizes[i] {
			t.Errorf("batch %d has %d ids, want %d", i, len(batch), wantSizes[i])
		}
	}
	if limiter.waits != 3 {
		t.Errorf("limiter waited %d times, want 3", limiter.waits)
	}
}

func TestSearchSequentialWhenBatchingDisabled(t *testing.T) {
	svc := seededService(5, 0)
	c, limiter := newTestClient(svc, Config{BatchSize: -1})

	messages, err := c.Messages().Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("got %d messages, want 5", len(messages))
	}
	if len(svc.batchGets) != 0 {
		t.Errorf("got %d batch calls, want 0", len(svc.batchGets))
	}
	if len(svc.getIDs) != 5 {
		t.Errorf("got %d sequential gets, want 5", len(svc.getIDs))
	}
	if limiter.waits != 0 {
		t.Errorf("limiter waited %d times, want 0", limiter.waits)
	}
}

func TestSearchRendersQueryAndLabels(t *testing.T) {
	svc := seededService(1, 0)
	c, _ := newTestClient(svc, Config{})

	tree, err := c.Labels(context.Background())
	if err != nil {
		t.Fatalf("Labels() error = %v", err)
	}

	_, err = c.Messages().
		Where(query.From.Eq("alice@example.com").And(query.Subject.Contains("report"))).
		In(tree.System.Inbox).
		Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	call := svc.listCalls[len(svc.listCalls)-1]
	want := `(from:"alice@example.com" subject:report)`
	if call.Query != want {
		t.Errorf("Query = %q, want %q", call.Query, want)
	}
	if len(call.LabelIDs) != 1 || call.LabelIDs[0] != domain.LabelInbox {
		t.Errorf("LabelIDs = %v, want [%s]", call.LabelIDs, domain.LabelInbox)
	}
}

func TestSearchRawQueryAppended(t *testing.T) {
	svc := seededService(1, 0)
	c, _ := newTestClient(svc, Config{})

	_, err := c.Messages().
		Where(query.Subject.Contains("invoice")).
		WhereRaw("in:anywhere newer_than:7d").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	call := svc.listCalls[len(svc.listCalls)-1]
	want := "subject:invoice in:anywhere newer_than:7d"
	if call.Query != want {
		t.Errorf("Query = %q, want %q", call.Query, want)
	}
}

func TestSearchInvalidQueryFailsBeforeListing(t *testing.T) {
	svc := seededService(1, 0)
	c, _ := newTestClient(svc, Config{})

	listsBefore := len(svc.listCalls)
	_, err := c.Messages().Where(query.From.And(query.Subject.Contains("x"))).Execute(context.Background())
	if err == nil {
		t.Fatal("Execute() error = nil, want render failure")
	}
	if len(svc.listCalls) != listsBefore {
		t.Error("listing was attempted despite an invalid query")
	}
}

func TestSearchBatchGetErrorAborts(t *testing.T) {
	svc := seededService(10, 0)
	svc.failGetID = "m3"
	c, _ := newTestClient(svc, Config{BatchSize: 5})

	_, err := c.Messages().Unlimited().Execute(context.Background())
	if err == nil {
		t.Fatal("Execute() error = nil, want failure")
	}
	if !strings.Contains(err.Error(), "m3") {
		t.Errorf("error %q does not name the failing id", err)
	}
	if len(svc.batchGets) != 1 {
		t.Errorf("got %d batch calls after failure, want 1", len(svc.batchGets))
	}
}

func TestSearchOrdering(t *testing.T) {
	svc := seededService(0, 0)
	svc.listIDs = []string{"old", "newest", "mid"}
	svc.raws["old"] = plainRaw("old", 1000)
	svc.raws["newest"] = plainRaw("newest", 3000)
	svc.raws["mid"] = plainRaw("mid", 2000)
	c, _ := newTestClient(svc, Config{})

	messages, err := c.Messages().OrderBy(query.ByDate.Desc()).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got []string
	for _, m := range messages {
		got = append(got, m.ID)
	}
	want := []string{"newest", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestBulkCloseAppliesOnlyAfterCommit(t *testing.T) {
	svc := seededService(4, 0)
	c, _ := newTestClient(svc, Config{})
	ctx := context.Background()

	bc := c.Messages().Unlimited().Bulk().MarkRead(true)
	if err := bc.Open(ctx); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if bc.Count() != 4 || bc.Empty() {
		t.Fatalf("Count() = %d, Empty() = %v, want 4, false", bc.Count(), bc.Empty())
	}

	// abandoning without Commit must not touch anything
	if err := bc.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(svc.batchMods) != 0 {
		t.Fatalf("uncommitted close ran the action: %v", svc.batchMods)
	}

	bc.Commit()
	if len(svc.batchMods) != 0 {
		t.Fatal("Commit alone must not run the action")
	}
	if err := bc.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(svc.batchMods) != 1 {
		t.Fatalf("got %d batch modifications, want 1", len(svc.batchMods))
	}
	mod := svc.batchMods[0]
	if len(mod.ids) != 4 {
		t.Errorf("action touched %d ids, want 4", len(mod.ids))
	}
	if !contains(mod.remove, domain.LabelUnread) {
		t.Errorf("MarkRead(true) remove = %v, want to contain %s", mod.remove, domain.LabelUnread)
	}

	// the context is spent; closing again is a no-op
	if err := bc.Close(ctx); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if len(svc.batchMods) != 1 {
		t.Error("second close re-ran the action")
	}
}

func TestBulkCommitWithoutOpenFails(t *testing.T) {
	svc := seededService(2, 0)
	c, _ := newTestClient(svc, Config{})

	bc := c.Messages().Bulk().Archive()
	bc.Commit()
	if err := bc.Close(context.Background()); err == nil {
		t.Fatal("Close() error = nil, want failure for unopened context")
	}
}

func TestBulkExecute(t *testing.T) {
	svc := seededService(7, 0)
	c, _ := newTestClient(svc, Config{})

	n, err := c.Messages().Unlimited().Bulk().Delete().Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if n != 7 {
		t.Errorf("Execute() = %d, want 7", n)
	}
	if len(svc.batchDeletes) != 1 || len(svc.batchDeletes[0]) != 7 {
		t.Errorf("batch deletes = %v, want one call with 7 ids", svc.batchDeletes)
	}
}

func TestBulkExecuteEmptyMatchSkipsAction(t *testing.T) {
	svc := seededService(0, 0)
	c, _ := newTestClient(svc, Config{})

	n, err := c.Messages().Bulk().Delete().Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Execute() = %d, want 0", n)
	}
	if len(svc.batchDeletes) != 0 {
		t.Error("empty match ran the delete anyway")
	}
}

var sampleMIME = strings.Join([]string{
	"From: Alice Chen <alice@example.com>",
	"To: Bob <bob@example.com>",
	"Cc: Team <team@example.com>",
	"Subject: Quarterly report",
	"MIME-Version: 1.0",
	`Content-Type: multipart/mixed; boundary="frontier"`,
	"",
	"--frontier",
	"Content-Type: text/plain; charset=utf-8",
	"",
	"See attached.",
	"--frontier",
	"Content-Type: application/pdf",
	`Content-Disposition: attachment; filename="report.pdf"`,
	"",
	"%PDF-1.4",
	"--frontier--",
	"",
}, "\r\n")

func TestMessageAssembly(t *testing.T) {
	svc := &fakeService{
		labels: []domain.Label{
			{ID: "Label_1", Name: "work", Type: domain.LabelTypeUser},
		},
		raws: map[string]*provider.RawMessage{
			"m1": {
				ID:           "m1",
				ThreadID:     "t1",
				SizeEstimate: 4096,
				InternalDate: 1717200000000,
				Raw:          []byte(sampleMIME),
				LabelIDs:     []string{domain.LabelInbox, domain.LabelUnread, domain.CategoryPromotions, "Label_1"},
			},
		},
	}
	c, _ := newTestClient(svc, Config{})

	msg, err := c.Message(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}

	if msg.Subject != "Quarterly report" {
		t.Errorf("Subject = %q, want %q", msg.Subject, "Quarterly report")
	}
	if msg.From == nil || msg.From.Email != "alice@example.com" || msg.From.Name != "Alice Chen" {
		t.Errorf("From = %+v, want Alice Chen <alice@example.com>", msg.From)
	}
	if len(msg.To) != 1 || msg.To[0].Email != "bob@example.com" {
		t.Errorf("To = %+v, want bob@example.com", msg.To)
	}
	if !strings.Contains(msg.Body.Text, "See attached.") {
		t.Errorf("Body.Text = %q, want the inline text part", msg.Body.Text)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Filename != "report.pdf" || att.MIMEType != "application/pdf" {
		t.Errorf("attachment = %+v, want report.pdf application/pdf", att)
	}
	if !msg.Date.Equal(time.UnixMilli(1717200000000)) {
		t.Errorf("Date = %v, want internal date, not the header", msg.Date)
	}

	if msg.Category() == nil || msg.Category().ID() != domain.CategoryPromotions {
		t.Errorf("Category() = %v, want %s", msg.Category(), domain.CategoryPromotions)
	}
	if len(msg.Labels()) != 3 {
		t.Fatalf("got %d labels, want 3 (categories resolve separately)", len(msg.Labels()))
	}
	if msg.IsRead() {
		t.Error("IsRead() = true for a message carrying UNREAD")
	}

	tree, _ := c.Labels(context.Background())
	node, err := tree.ByName("work")
	if err != nil {
		t.Fatalf("ByName(work) error = %v", err)
	}
	work, err := node.Label(context.Background())
	if err != nil {
		t.Fatalf("Label() error = %v", err)
	}
	ok, err := msg.Contains(work)
	if err != nil || !ok {
		t.Errorf("Contains(work) = %v, %v, want true, nil", ok, err)
	}
	if _, err := msg.Contains("work"); err == nil {
		t.Error("Contains(string) error = nil, want type error")
	}
}

func TestMessageRejectsMultipleCategories(t *testing.T) {
	svc := &fakeService{
		raws: map[string]*provider.RawMessage{
			"m1": plainRaw("m1", 1000, domain.CategoryPromotions, domain.CategoryUpdates),
		},
	}
	c, _ := newTestClient(svc, Config{})

	if _, err := c.Message(context.Background(), "m1"); err == nil {
		t.Fatal("Message() error = nil, want multiple-category failure")
	}
}

func TestMessageMutationsRefresh(t *testing.T) {
	svc := &fakeService{
		raws: map[string]*provider.RawMessage{
			"m1": plainRaw("m1", 1000, domain.LabelInbox, domain.LabelUnread),
		},
	}
	c, _ := newTestClient(svc, Config{})
	ctx := context.Background()

	msg, err := c.Message(ctx, "m1")
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}

	if err := msg.MarkRead(ctx, true); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if !msg.IsRead() {
		t.Error("IsRead() = false after MarkRead(true); snapshot not refreshed")
	}
	if len(svc.modifies) != 1 || !contains(svc.modifies[0].remove, domain.LabelUnread) {
		t.Errorf("modifies = %+v, want one call removing UNREAD", svc.modifies)
	}

	if err := msg.Archive(ctx); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if msg.HasLabelID(domain.LabelInbox) {
		t.Error("message still in inbox after Archive")
	}

	if err := msg.Trash(ctx); err != nil {
		t.Fatalf("Trash() error = %v", err)
	}
	if len(svc.trashed) != 1 || svc.trashed[0] != "m1" {
		t.Errorf("trashed = %v, want [m1]", svc.trashed)
	}
}

func TestBulkChangeCategoryDisplacesOthers(t *testing.T) {
	svc := seededService(3, 0)
	c, _ := newTestClient(svc, Config{})
	ctx := context.Background()

	tree, err := c.Labels(ctx)
	if err != nil {
		t.Fatalf("Labels() error = %v", err)
	}
	promos, err := tree.Categories.Promotions.Category(ctx)
	if err != nil {
		t.Fatalf("Category() error = %v", err)
	}

	if _, err := c.Messages().Unlimited().Bulk().ChangeCategory(promos).Execute(ctx); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	mod := svc.batchMods[0]
	if !contains(mod.add, domain.CategoryPromotions) {
		t.Errorf("add = %v, want %s", mod.add, domain.CategoryPromotions)
	}
	if contains(mod.remove, domain.CategoryPromotions) {
		t.Error("target category must not be removed")
	}
	for _, other := range []string{domain.CategoryPersonal, domain.CategorySocial, domain.CategoryUpdates, domain.CategoryForums} {
		if !contains(mod.remove, other) {
			t.Errorf("remove = %v, want to contain %s", mod.remove, other)
		}
	}
}
